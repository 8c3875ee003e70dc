package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/model"
	"github.com/pennypal/pennypal/internal/session"
	"github.com/pennypal/pennypal/internal/tui/components"
	"github.com/pennypal/pennypal/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type authMode int

const (
	modeSignIn authMode = iota
	modeSignUp
	modeRetryProfile
)

type authValues struct {
	Name       string
	Occupation string
	Email      string
	Password   string
}

// authState is the sign-in/sign-up screen. vals is shared by every copy
// of the App so the form's bound fields stay visible after Update.
type authState struct {
	mode           authMode
	form           *huh.Form
	vals           *authValues
	busy           bool
	err            string
	notice         string
	profilePending bool
}

type authDoneMsg struct {
	mode    authMode
	session *model.Session
	err     error
}

func newAuthState() authState {
	return authState{vals: &authValues{}}
}

// rebuild replaces the form for the current mode, keeping typed values
// except the password.
func (s *authState) rebuild() tea.Cmd {
	s.vals.Password = ""
	s.form = newAuthForm(s.mode, s.vals)
	return s.form.Init()
}

func newAuthForm(mode authMode, v *authValues) *huh.Form {
	var fields []huh.Field
	if mode == modeSignUp {
		fields = append(fields,
			huh.NewInput().Title("Name").Value(&v.Name).Validate(required("Name")),
			huh.NewInput().Title("Occupation").Value(&v.Occupation),
		)
	}
	fields = append(fields,
		huh.NewInput().Title("Email").Placeholder("you@example.com").Value(&v.Email).Validate(required("Email")),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&v.Password).Validate(required("Password")),
	)
	return huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(formTheme()).
		WithShowHelp(false).
		WithWidth(44)
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

// formTheme tints the huh base theme with the active palette.
func formTheme() *huh.Theme {
	t := theme.Active
	ft := huh.ThemeBase()
	ft.Focused.Title = ft.Focused.Title.Foreground(t.Accent).Bold(true)
	ft.Focused.Base = ft.Focused.Base.BorderForeground(t.Accent)
	ft.Focused.SelectSelector = ft.Focused.SelectSelector.Foreground(t.AccentBright)
	ft.Focused.SelectedOption = ft.Focused.SelectedOption.Foreground(t.AccentBright)
	ft.Focused.FocusedButton = ft.Focused.FocusedButton.Foreground(t.TextInverse).Background(t.Accent)
	ft.Focused.ErrorMessage = ft.Focused.ErrorMessage.Foreground(t.Negative)
	ft.Focused.ErrorIndicator = ft.Focused.ErrorIndicator.Foreground(t.Negative)
	ft.Blurred.Title = ft.Blurred.Title.Foreground(t.TextMuted)
	return ft
}

func (a App) updateAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.auth.busy {
		return a, nil
	}

	key := msg.String()
	if a.auth.profilePending {
		switch key {
		case "R", "r", "enter":
			a.auth.busy = true
			a.auth.err = ""
			cmd := tea.Batch(a.authCmd(modeRetryProfile, *a.auth.vals), a.startSpin())
			return a, cmd
		case "esc":
			a.auth.profilePending = false
			a.auth.mode = modeSignIn
			cmd := a.auth.rebuild()
			return a, cmd
		case "q":
			return a, tea.Quit
		}
		return a, nil
	}

	if key == "ctrl+n" {
		if a.auth.mode == modeSignIn {
			a.auth.mode = modeSignUp
		} else {
			a.auth.mode = modeSignIn
		}
		a.auth.err = ""
		a.auth.notice = ""
		cmd := a.auth.rebuild()
		return a, cmd
	}
	if key == "esc" {
		return a, tea.Quit
	}
	return a.updateAuthForm(msg)
}

func (a App) updateAuthForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.auth.form == nil {
		return a, nil
	}
	form, cmd := a.auth.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.auth.form = f
	}

	switch a.auth.form.State {
	case huh.StateCompleted:
		a.auth.busy = true
		a.auth.err = ""
		a.auth.notice = ""
		cmd = tea.Batch(a.authCmd(a.auth.mode, *a.auth.vals), a.startSpin())
		return a, cmd
	case huh.StateAborted:
		return a, tea.Quit
	}
	return a, cmd
}

func (a App) authCmd(mode authMode, v authValues) tea.Cmd {
	sess := a.sess
	return func() tea.Msg {
		ctx := context.Background()
		var (
			s   *model.Session
			err error
		)
		switch mode {
		case modeSignUp:
			s, err = sess.SignUp(ctx, strings.TrimSpace(v.Email), v.Password, strings.TrimSpace(v.Name), strings.TrimSpace(v.Occupation))
		case modeRetryProfile:
			s, err = sess.RetryProfile(ctx)
		default:
			s, err = sess.SignIn(ctx, strings.TrimSpace(v.Email), v.Password)
		}
		return authDoneMsg{mode: mode, session: s, err: err}
	}
}

// onAuthDone reports the outcome. A successful sign-in needs no handling
// here: the session event switches screens.
func (a App) onAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	a.auth.busy = false

	switch {
	case msg.err == nil:
		a.auth.profilePending = false
		if msg.session == nil && msg.mode != modeSignIn {
			a.auth.mode = modeSignIn
			a.auth.notice = "Account created. Confirm your email, then sign in."
		}
	case apperr.KindOf(msg.err) == apperr.KindProfileWrite:
		a.auth.profilePending = true
		a.auth.form = nil
		a = a.raise("Profile not saved", apperr.Message(msg.err), components.ToneError)
		return a, nil
	case errors.Is(msg.err, session.ErrNoPendingSignUp):
		a.auth.profilePending = false
		a.auth.mode = modeSignIn
	default:
		a.auth.err = apperr.Message(msg.err)
	}

	if a.userID != "" {
		return a, nil
	}
	cmd := a.auth.rebuild()
	return a, cmd
}

func (a App) viewAuth() string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Negative).Background(t.Surface).Width(44)
	okStyle := lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface).Width(44)

	var b strings.Builder
	title := "Sign in"
	switch {
	case a.auth.profilePending:
		title = "Finish creating your account"
	case a.auth.mode == modeSignUp:
		title = "Create your account"
	}

	if a.auth.profilePending {
		b.WriteString(mutedStyle.Width(44).Render("Your identity exists but the profile record was not saved."))
		b.WriteString("\n\n")
		if a.auth.err != "" {
			b.WriteString(errStyle.Render(a.auth.err))
			b.WriteString("\n\n")
		}
		busy := ""
		if a.auth.busy {
			busy = a.spinner.View()
		}
		b.WriteString(components.ButtonRow(
			components.Button("[R] Retry", components.Primary, true, busy),
			components.Button("[esc] Back", components.Ghost, false, ""),
		))
		return a.viewCentered(components.Modal(title, b.String(), "", 52))
	}

	if a.auth.notice != "" {
		b.WriteString(okStyle.Render(a.auth.notice))
		b.WriteString("\n\n")
	}
	if a.auth.err != "" {
		b.WriteString(errStyle.Render(a.auth.err))
		b.WriteString("\n\n")
	}
	if a.auth.busy {
		b.WriteString(mutedStyle.Render(a.spinner.View() + " Contacting server..."))
	} else if a.auth.form != nil {
		b.WriteString(a.auth.form.View())
	}

	b.WriteString("\n\n")
	switchHint := "[ctrl+n] create an account"
	if a.auth.mode == modeSignUp {
		switchHint = "[ctrl+n] sign in instead"
	}
	b.WriteString(dimStyle.Render(switchHint + "  [enter] next  [esc] quit"))

	return a.viewCentered(components.Modal(titleStyle.Render("₹ pennypal")+mutedStyle.Render(" · "+title), b.String(), "", 52))
}
