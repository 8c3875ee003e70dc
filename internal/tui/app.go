// Package tui provides the interactive Bubble Tea dashboard for pennypal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/config"
	"github.com/pennypal/pennypal/internal/logging"
	"github.com/pennypal/pennypal/internal/model"
	"github.com/pennypal/pennypal/internal/session"
	"github.com/pennypal/pennypal/internal/tui/components"
	"github.com/pennypal/pennypal/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// SessionService is the part of the session manager the dashboard drives.
type SessionService interface {
	Current() *model.Session
	Subscribe(l session.Listener) (unsubscribe func())
	Restore(ctx context.Context) (*model.Session, error)
	Run(ctx context.Context) error
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password, name, occupation string) (*model.Session, error)
	RetryProfile(ctx context.Context) (*model.Session, error)
	PendingProfile() string
	SignOut(ctx context.Context) error
	History() []session.Event
}

// Gateway is the part of the data gateway the dashboard drives.
type Gateway interface {
	Dashboard(ctx context.Context, userID string) (*model.Dashboard, error)
	Spending(ctx context.Context, userID string) (*model.Spending, error)
	PendingBills(ctx context.Context, userID string) (*model.BillsSummary, error)
	PaymentStatus(ctx context.Context, userID string) (*model.PaymentStatus, error)
	AutopayPayments(ctx context.Context, userID string) ([]model.Payment, error)
	CheckPayments(ctx context.Context, userID string) (*model.CheckResult, error)
	BudgetCheck(ctx context.Context, userID string) (*model.BudgetCheck, error)
	SetWeeklyBudget(ctx context.Context, userID string, amount float64) error
	InsertPayment(ctx context.Context, p model.Payment) (model.Payment, error)
}

// Deps are the collaborators of the dashboard.
type Deps struct {
	Session    SessionService
	Gateway    Gateway
	Config     config.Config
	SaveConfig func(config.Config) error // defaults to config.Save
	NeedSetup  bool
	Log        logging.Logger
	Now        func() time.Time
}

// alert is a blocking message dismissed by any key.
type alert struct {
	title string
	body  string
	tone  components.StatusTone
}

// App is the root Bubble Tea model.
type App struct {
	sess       SessionService
	gw         Gateway
	log        logging.Logger
	cfg        config.Config
	saveConfig func(config.Config) error
	now        func() time.Time
	bridge     *sessionBridge

	// Session
	restored bool
	current  *model.Session
	userID   string
	auth     authState

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	alert     *alert

	// Tab switching
	tabDelay  time.Duration
	switching bool
	switchTo  int
	switchSeq int

	spinner  spinner.Model
	spinning bool

	// Per-screen state
	dash     viewState[dashboardData]
	spend    viewState[spendingData]
	pay      viewState[paymentsData]
	budget   viewState[budgetData]
	payments paymentsState
	planner  plannerState
	settings settingsState

	// Auto-refresh
	autoRefresh     bool
	refreshInterval time.Duration

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5

	minRefreshInterval = 10 * time.Second
)

// NewApp creates the dashboard model. Session events reach it once Run
// subscribes the app's bridge.
func NewApp(deps Deps) App {
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	save := deps.SaveConfig
	if save == nil {
		save = config.Save
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	refresh := time.Duration(deps.Config.TUI.RefreshIntervalSec) * time.Second
	if refresh < minRefreshInterval {
		refresh = 60 * time.Second
	}

	a := App{
		sess:            deps.Session,
		gw:              deps.Gateway,
		log:             log.With("component", "tui"),
		cfg:             deps.Config,
		saveConfig:      save,
		now:             now,
		bridge:          newSessionBridge(),
		tabDelay:        config.TabSwitchDelay(deps.Config),
		spinner:         sp,
		spinning:        true,
		auth:            newAuthState(),
		payments:        newPaymentsState(),
		planner:         newPlannerState(),
		autoRefresh:     deps.Config.TUI.AutoRefresh,
		refreshInterval: refresh,
		needSetup:       deps.NeedSetup,
	}
	if a.needSetup {
		a.setupVals = setupValuesFrom(deps.Config)
		a.setupForm = newSetupForm(a.setupVals)
	}
	return a
}

// Run starts the dashboard and blocks until it exits. The token refresh
// loop runs for the lifetime of the program and the session subscription
// is released on return.
func Run(ctx context.Context, deps Deps, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := NewApp(deps)
	unsubscribe := deps.Session.Subscribe(app.bridge.publish)
	defer func() {
		unsubscribe()
		app.bridge.close()
	}()

	go func() {
		if err := deps.Session.Run(ctx); err != nil && ctx.Err() == nil {
			app.log.Error(ctx, "session refresh loop stopped", "err", err)
		}
	}()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(app, opts...).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

type restoreDoneMsg struct{ err error }

type signOutDoneMsg struct{ err error }

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.bridge.wait(),
		a.restoreCmd(),
		a.spinner.Tick,
		tickCmd(),
	}
	if a.needSetup && a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) restoreCmd() tea.Cmd {
	sess := a.sess
	return func() tea.Msg {
		_, err := sess.Restore(context.Background())
		return restoreDoneMsg{err: err}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(min(msg.Width, 72)).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case sessionMsg:
		return a.onSession(msg.ev)

	case restoreDoneMsg:
		if msg.err != nil {
			a.log.Warn(context.Background(), "restore failed", "err", msg.err)
		}
		return a, nil

	case authDoneMsg:
		return a.onAuthDone(msg)

	case signOutDoneMsg:
		if msg.err != nil {
			// The local session is already cleared.
			a.log.Warn(context.Background(), "sign out", "err", msg.err)
		}
		return a, nil

	case tabMountMsg:
		if !a.switching || msg.seq != a.switchSeq {
			return a, nil
		}
		a.switching = false
		a.activeTab = a.switchTo
		cmd := a.mount(a.activeTab)
		return a, cmd

	case loadedMsg:
		a.onLoaded(msg)
		return a, nil

	case actionMsg:
		return a.onAction(msg)

	case spinner.TickMsg:
		if !a.busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.autoRefresh && a.userID != "" && !a.switching {
			if cmd := a.refreshIfStale(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return a, tea.Batch(cmds...)
	}

	// Forward everything else (cursor blinks, form internals) to whatever
	// currently has focus.
	return a.forward(msg)
}

func (a App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch {
	case a.needSetup && a.setupForm != nil:
		return a.updateSetupForm(msg)
	case a.restored && a.userID == "" && a.auth.form != nil:
		return a.updateAuthForm(msg)
	case a.activeTab == screenPayments && a.payments.view == payViewAdd && a.payments.form != nil:
		return a.updatePaymentForm(msg)
	case a.activeTab == screenBudget && a.planner.editing:
		var cmd tea.Cmd
		a.planner.input, cmd = a.planner.input.Update(msg)
		return a, cmd
	case a.activeTab == screenSettings && a.settings.editing:
		var cmd tea.Cmd
		a.settings.input, cmd = a.settings.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// A blocking alert swallows the key that dismisses it.
	if a.alert != nil {
		a.alert = nil
		return a, nil
	}

	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if !a.restored {
		return a, nil
	}

	if a.userID == "" {
		return a.updateAuthKey(msg)
	}

	// Focused inputs get every key.
	if !a.switching {
		switch {
		case a.activeTab == screenPayments && a.payments.view == payViewAdd && a.payments.form != nil:
			if key == "esc" {
				a.payments.view = payViewAutopay
				return a, nil
			}
			return a.updatePaymentForm(msg)
		case a.activeTab == screenBudget && a.planner.editing:
			return a.updatePlannerInput(msg)
		case a.activeTab == screenSettings && a.settings.editing:
			return a.updateSettingsInput(msg)
		}
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "L":
		return a, a.signOutCmd()
	case "left":
		return a.switchTab((a.currentTab() - 1 + len(components.Tabs)) % len(components.Tabs))
	case "right":
		return a.switchTab((a.currentTab() + 1) % len(components.Tabs))
	}
	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			return a.switchTab(idx)
		}
	}

	if a.switching {
		return a, nil
	}

	switch a.activeTab {
	case screenDashboard:
		return a.updateDashboardKey(key)
	case screenSpending:
		if key == "r" {
			cmd := a.mount(screenSpending)
			return a, cmd
		}
	case screenPayments:
		return a.updatePaymentsKey(key)
	case screenBudget:
		return a.updatePlannerKey(key)
	case screenSettings:
		return a.updateSettingsKey(key)
	}
	return a, nil
}

// currentTab is the tab being shown or about to be shown.
func (a App) currentTab() int {
	if a.switching {
		return a.switchTo
	}
	return a.activeTab
}

// switchTab starts the cosmetic switch delay, then mounts the screen.
// Mounting always re-fetches.
func (a App) switchTab(idx int) (tea.Model, tea.Cmd) {
	if idx == a.currentTab() {
		return a, nil
	}
	a.showHelp = false
	a.switchSeq++
	if a.tabDelay <= 0 {
		a.switching = false
		a.activeTab = idx
		cmd := a.mount(idx)
		return a, cmd
	}
	a.switching = true
	a.switchTo = idx
	seq := a.switchSeq
	cmd := tea.Batch(
		tea.Tick(a.tabDelay, func(time.Time) tea.Msg { return tabMountMsg{seq: seq} }),
		a.startSpin(),
	)
	return a, cmd
}

// mount issues the reads of a screen for the current user.
func (a *App) mount(screen int) tea.Cmd {
	if a.userID == "" {
		return nil
	}
	var gen int
	switch screen {
	case screenDashboard:
		gen = a.dash.begin()
	case screenSpending:
		gen = a.spend.begin()
	case screenPayments:
		gen = a.pay.begin()
	case screenBudget:
		gen = a.budget.begin()
	default:
		return nil
	}
	return tea.Batch(fetchCmd(a.gw, screen, gen, a.userID), a.startSpin())
}

func (a *App) onLoaded(msg loadedMsg) {
	now := a.now()
	var accepted bool
	switch msg.screen {
	case screenDashboard:
		accepted = a.dash.accept(msg, a.userID, now)
	case screenSpending:
		accepted = a.spend.accept(msg, a.userID, now)
	case screenPayments:
		accepted = a.pay.accept(msg, a.userID, now)
	case screenBudget:
		accepted = a.budget.accept(msg, a.userID, now)
	}
	if !accepted {
		a.log.Debug(context.Background(), "dropped stale response", "screen", msg.screen, "gen", msg.gen)
		return
	}
	if msg.err != nil {
		a.log.Warn(context.Background(), "fetch failed", "screen", components.Tabs[msg.screen].Name, "kind", apperr.KindOf(msg.err).String(), "err", msg.err)
	}
}

func (a App) onAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.log.Warn(context.Background(), "action failed", "action", int(msg.action), "kind", apperr.KindOf(msg.err).String(), "err", msg.err)
	}
	switch msg.screen {
	case screenDashboard:
		if !a.dash.finish(msg, a.userID) {
			return a, nil
		}
		return a.onDashboardAction(msg)
	case screenPayments:
		if !a.pay.finish(msg, a.userID) {
			return a, nil
		}
		return a.onPaymentsAction(msg)
	case screenBudget:
		if !a.budget.finish(msg, a.userID) {
			return a, nil
		}
		return a.onPlannerAction(msg)
	}
	return a, nil
}

// onSession applies a session change. A different user, including none,
// resets every screen so responses for the previous user are dropped.
func (a App) onSession(ev session.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{a.bridge.wait()}

	a.restored = true
	a.current = ev.Session
	id := ev.Session.UserID()

	if id != a.userID {
		a.resetScreens()
		a.userID = id
		if id != "" {
			a.auth = newAuthState()
			a.activeTab = screenDashboard
			a.switching = false
			cmds = append(cmds, a.mount(a.activeTab))
		}
	}
	if id == "" && a.auth.form == nil && !a.auth.profilePending {
		cmds = append(cmds, a.auth.rebuild())
	}
	return a, tea.Batch(cmds...)
}

func (a *App) resetScreens() {
	a.dash.reset()
	a.spend.reset()
	a.pay.reset()
	a.budget.reset()
	a.payments = newPaymentsState()
	a.planner = newPlannerState()
	a.settings = settingsState{}
	a.showHelp = false
}

func (a App) signOutCmd() tea.Cmd {
	sess := a.sess
	return func() tea.Msg {
		return signOutDoneMsg{err: sess.SignOut(context.Background())}
	}
}

// refreshIfStale re-fetches the active screen once its data is older
// than the refresh interval.
func (a *App) refreshIfStale() tea.Cmd {
	now := a.now()
	stale := func(loading, processing bool, at time.Time) bool {
		return !loading && !processing && !at.IsZero() && now.Sub(at) >= a.refreshInterval
	}
	switch a.activeTab {
	case screenDashboard:
		if stale(a.dash.loading, a.dash.processing, a.dash.fetchedAt) {
			return a.mount(screenDashboard)
		}
	case screenSpending:
		if stale(a.spend.loading, a.spend.processing, a.spend.fetchedAt) {
			return a.mount(screenSpending)
		}
	case screenPayments:
		// Never refresh under an open form.
		if a.payments.view != payViewAdd && stale(a.pay.loading, a.pay.processing, a.pay.fetchedAt) {
			return a.mount(screenPayments)
		}
	case screenBudget:
		if !a.planner.editing && stale(a.budget.loading, a.budget.processing, a.budget.fetchedAt) {
			return a.mount(screenBudget)
		}
	}
	return nil
}

func (a *App) startSpin() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a App) busy() bool {
	return !a.restored || a.switching || a.auth.busy ||
		a.dash.loading || a.dash.processing ||
		a.spend.loading ||
		a.pay.loading || a.pay.processing ||
		a.budget.loading || a.budget.processing
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if a.setupVals.Confirm {
			a.setupVals.apply(&a.cfg)
			if err := a.saveConfig(a.cfg); err != nil {
				a.alert = &alert{title: "Settings not saved", body: err.Error(), tone: components.ToneWarn}
			}
		}
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) raise(title, body string, tone components.StatusTone) App {
	a.alert = &alert{title: title, body: body, tone: tone}
	return a
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// ─── Views ──────────────────────────────────────────────────────

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.alert != nil {
		return a.viewAlert()
	}
	if a.needSetup && a.setupForm != nil {
		return a.viewCentered(a.setupForm.View())
	}
	switch {
	case !a.restored:
		return a.viewLoading("Restoring session...")
	case a.userID == "":
		return a.viewAuth()
	case a.showHelp:
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  pennypal needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewCentered(body string) string {
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, body,
		lipgloss.WithWhitespaceBackground(theme.Active.Background))
}

func (a App) viewLoading(label string) string {
	t := theme.Active
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("₹ pennypal"))
	b.WriteString(subtitleStyle.Render(" · budget & payments"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" " + label))

	return a.viewCentered(components.Modal("", b.String(), "", 48))
}

func (a App) viewAlert() string {
	t := theme.Active
	color := t.TextPrimary
	switch a.alert.tone {
	case components.ToneOK:
		color = t.Positive
	case components.ToneWarn:
		color = t.Caution
	case components.ToneError:
		color = t.Negative
	}
	body := lipgloss.NewStyle().Foreground(color).Background(t.Surface).
		Width(48).Render(a.alert.body)
	return a.viewCentered(components.Modal(a.alert.title, body, "Press any key to continue", 58))
}

func (a App) viewHelp() string {
	t := theme.Active
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Info).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	type binding struct{ key, desc string }
	sections := []struct {
		title    string
		bindings []binding
	}{
		{"Navigation", []binding{
			{"d s p b x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"1 2 3", "Payments: auto-pay / due / add"},
			{"j k", "Scroll lists, move in settings"},
		}},
		{"Actions", []binding{
			{"c", "Dashboard: run payment check"},
			{"c", "Budget: run budget analysis"},
			{"e", "Budget: edit weekly budget"},
			{"r", "Refresh current tab"},
			{"L", "Sign out"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	return a.viewCentered(components.Modal("Keyboard Shortcuts", strings.TrimRight(b.String(), "\n"), "Press any key to close", 54))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w, a.current.DisplayName())

	status, tone, right := a.statusLine()
	statusBar := components.RenderStatusBar(w, status, tone, right)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	if a.switching {
		spin := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Render(a.spinner.View())
		label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
			Render(" Loading " + components.Tabs[a.switchTo].Name + "...")
		content = lipgloss.Place(cw, contentH, lipgloss.Center, lipgloss.Center,
			components.Modal("", spin+label, "", 36),
			lipgloss.WithWhitespaceBackground(t.Background))
	} else {
		switch a.activeTab {
		case screenDashboard:
			content = a.renderDashboardTab(cw)
		case screenSpending:
			content = a.renderSpendingTab(cw)
		case screenPayments:
			content = a.renderPaymentsTab(cw, contentH)
		case screenBudget:
			content = a.renderBudgetTab(cw)
		case screenSettings:
			content = a.renderSettingsTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// statusLine returns the active screen's status message and freshness.
func (a App) statusLine() (string, components.StatusTone, string) {
	right := ""
	fresh := func(loading bool, at time.Time) string {
		switch {
		case loading:
			return a.spinner.View() + " loading"
		case at.IsZero():
			return ""
		}
		return "updated " + at.Format("15:04:05")
	}
	if a.autoRefresh {
		right = "auto · "
	}
	switch a.activeTab {
	case screenDashboard:
		return a.dash.status, a.dash.tone, right + fresh(a.dash.loading, a.dash.fetchedAt)
	case screenSpending:
		return a.spend.status, a.spend.tone, right + fresh(a.spend.loading, a.spend.fetchedAt)
	case screenPayments:
		return a.pay.status, a.pay.tone, right + fresh(a.pay.loading, a.pay.fetchedAt)
	case screenBudget:
		return a.budget.status, a.budget.tone, right + fresh(a.budget.loading, a.budget.fetchedAt)
	case screenSettings:
		if a.settings.saveErr != nil {
			return "Save failed: " + a.settings.saveErr.Error(), components.ToneError, ""
		}
		if a.settings.saved {
			return "Saved", components.ToneOK, ""
		}
	}
	return "", components.ToneNeutral, ""
}

// ─── Mouse Support ──────────────────────────────────────────────

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.alert != nil || a.showHelp || !a.restored || a.userID == "" || (a.needSetup && a.setupForm != nil) {
		return a, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == screenPayments && a.payments.scroll > 0 {
			a.payments.scroll--
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == screenPayments {
			a.payments.scroll++
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				return a.switchTab(tab)
			}
		}
	}
	return a, nil
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
