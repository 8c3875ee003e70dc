package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pennypal/pennypal/internal/config"
	"github.com/pennypal/pennypal/internal/tui/components"
	"github.com/pennypal/pennypal/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldTabDelay
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldAPIURL
	settingsFieldTimeout
	settingsFieldCount
)

// historyRows is how many session events the Settings tab lists.
const historyRows = 5

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
	case "enter":
		return a.settingsStartEdit()
	}
	return a, nil
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldTabDelay:
		ti.Placeholder = "300 (milliseconds, 0 to disable)"
		ti.SetValue(strconv.Itoa(int(a.tabDelay.Milliseconds())))
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.autoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = "60 (seconds, minimum 10)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	case settingsFieldAPIURL:
		ti.Placeholder = "http://localhost:8000/api"
		ti.SetValue(a.cfg.API.BaseURL)
	case settingsFieldTimeout:
		ti.Placeholder = "15 (seconds)"
		ti.SetValue(strconv.Itoa(int(config.RequestTimeout(a.cfg).Seconds())))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited field to the live model and writes the
// config. Invalid values leave the field unchanged.
func (a *App) settingsSave() {
	cfg := a.cfg
	val := strings.TrimSpace(a.settings.input.Value())

	switch a.settings.cursor {
	case settingsFieldTheme:
		if _, ok := theme.ByName(val); !ok {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldTabDelay:
		ms, err := strconv.Atoi(val)
		if err != nil || ms < 0 {
			a.settings.saveErr = fmt.Errorf("tab delay must be a whole number of milliseconds")
			return
		}
		cfg.TUI.TabSwitchDelayMS = ms
		a.tabDelay = config.TabSwitchDelay(cfg)
	case settingsFieldAutoRefresh:
		cfg.TUI.AutoRefresh = val == "true" || val == "1" || val == "yes"
		a.autoRefresh = cfg.TUI.AutoRefresh
	case settingsFieldRefreshInterval:
		sec, err := strconv.Atoi(val)
		if err != nil || time.Duration(sec)*time.Second < minRefreshInterval {
			a.settings.saveErr = fmt.Errorf("refresh interval must be at least %ds", int(minRefreshInterval.Seconds()))
			return
		}
		cfg.TUI.RefreshIntervalSec = sec
		a.refreshInterval = time.Duration(sec) * time.Second
	case settingsFieldAPIURL:
		if val == "" {
			a.settings.saveErr = fmt.Errorf("API URL cannot be empty")
			return
		}
		cfg.API.BaseURL = val
	case settingsFieldTimeout:
		sec, err := strconv.Atoi(val)
		if err != nil || sec <= 0 {
			a.settings.saveErr = fmt.Errorf("timeout must be a positive number of seconds")
			return
		}
		cfg.API.TimeoutSec = sec
	}

	a.cfg = cfg
	a.settings.saveErr = a.saveConfig(cfg)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceHover).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	type field struct {
		label   string
		value   string
		restart bool
	}
	fields := []field{
		{label: "Theme", value: a.cfg.Appearance.Theme},
		{label: "Tab switch delay", value: fmt.Sprintf("%dms", a.tabDelay.Milliseconds())},
		{label: "Auto refresh", value: strconv.FormatBool(a.autoRefresh)},
		{label: "Refresh interval", value: fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
		{label: "API URL", value: a.cfg.API.BaseURL, restart: true},
		{label: "Request timeout", value: fmt.Sprintf("%ds", int(config.RequestTimeout(a.cfg).Seconds())), restart: true},
	}

	innerW := components.CardInnerWidth(cw)
	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		note := ""
		if f.restart {
			note = "  (applies on restart)"
		}
		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value + note)
			formBody.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(value); pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceHover).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
			formBody.WriteString(dimStyle.Render(note))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		formBody.WriteString("\n")
		formBody.WriteString(lipgloss.NewStyle().Foreground(t.Caution).Background(t.Surface).
			Render("Save failed: " + a.settings.saveErr.Error()))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface).Render("Saved!"))
	}
	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Account", a.renderAccountInfo(), cw))
	return b.String()
}

func (a App) renderAccountInfo() string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-16s ", label)) + valueStyle.Render(value)
	}

	s := a.current
	expires := "never"
	if s != nil && !s.ExpiresAt.IsZero() {
		left := s.ExpiresAt.Sub(a.now()).Round(time.Second)
		expires = s.ExpiresAt.Local().Format("15:04:05")
		if left > 0 {
			expires += fmt.Sprintf(" (in %s)", left)
		} else {
			expires += " (expired)"
		}
	}
	email, id := "", ""
	if s != nil {
		email, id = s.User.Email, s.User.ID
	}

	lines := []string{
		row("Signed in as:", a.current.DisplayName()),
		row("Email:", email),
		row("User ID:", id),
		row("Token expires:", expires),
		row("Config file:", config.ConfigPath()),
		row("Log file:", config.LogPath(a.cfg)),
	}

	if a.sess != nil {
		hist := a.sess.History()
		if len(hist) > historyRows {
			hist = hist[len(hist)-historyRows:]
		}
		if len(hist) > 0 {
			lines = append(lines, "", labelStyle.Render("Recent session events"))
			for i := len(hist) - 1; i >= 0; i-- {
				ev := hist[i]
				lines = append(lines, labelStyle.Render(fmt.Sprintf("  #%-4d %s  ", ev.Seq, ev.At.Local().Format("15:04:05")))+
					valueStyle.Render(string(ev.Type)))
			}
		}
	}
	return strings.Join(lines, "\n")
}
