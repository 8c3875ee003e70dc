package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/config"
	"github.com/pennypal/pennypal/internal/model"
	"github.com/pennypal/pennypal/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Fakes ──────────────────────────────────────────────────────

type fakeSession struct {
	mu        sync.Mutex
	current   *model.Session
	signUpErr error
	retryErr  error
	signOuts  int
	retries   int
}

func (f *fakeSession) Current() *model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeSession) Subscribe(session.Listener) func() { return func() {} }
func (f *fakeSession) Restore(context.Context) (*model.Session, error) { return f.Current(), nil }
func (f *fakeSession) Run(ctx context.Context) error { <-ctx.Done(); return nil }
func (f *fakeSession) PendingProfile() string { return "" }
func (f *fakeSession) History() []session.Event { return nil }

func (f *fakeSession) SignIn(_ context.Context, email, _ string) (*model.Session, error) {
	s := testSession("u-" + email)
	f.mu.Lock()
	f.current = s
	f.mu.Unlock()
	return s, nil
}

func (f *fakeSession) SignUp(_ context.Context, email, _, name, _ string) (*model.Session, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return testSession("u-" + email), nil
}

func (f *fakeSession) RetryProfile(context.Context) (*model.Session, error) {
	f.mu.Lock()
	f.retries++
	f.mu.Unlock()
	if f.retryErr != nil {
		return nil, f.retryErr
	}
	return testSession("u-new"), nil
}

func (f *fakeSession) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.current = nil
	return nil
}

// stubGateway answers every read with an empty snapshot. Writes are
// recorded and fail with the configured errors.
type stubGateway struct {
	mu         sync.Mutex
	calls      []string
	budgetErr  error
	insertErr  error
	checkCalls int
	inserted   []model.Payment
	budgets    []float64
}

func (g *stubGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *stubGateway) called(call string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (g *stubGateway) Dashboard(_ context.Context, userID string) (*model.Dashboard, error) {
	g.record("Dashboard:" + userID)
	d := &model.Dashboard{}
	d.User.Name = "Asha"
	d.Spending = model.Spending{Total: 1500, Budget: 5000, Percentage: 30}
	return d, nil
}

func (g *stubGateway) Spending(_ context.Context, userID string) (*model.Spending, error) {
	g.record("Spending:" + userID)
	return &model.Spending{Total: 1500, Budget: 5000, Percentage: 30}, nil
}

func (g *stubGateway) PendingBills(_ context.Context, userID string) (*model.BillsSummary, error) {
	g.record("PendingBills:" + userID)
	return &model.BillsSummary{}, nil
}

func (g *stubGateway) PaymentStatus(_ context.Context, userID string) (*model.PaymentStatus, error) {
	g.record("PaymentStatus:" + userID)
	return &model.PaymentStatus{}, nil
}

func (g *stubGateway) AutopayPayments(_ context.Context, userID string) ([]model.Payment, error) {
	g.record("AutopayPayments:" + userID)
	return nil, nil
}

func (g *stubGateway) CheckPayments(_ context.Context, userID string) (*model.CheckResult, error) {
	g.mu.Lock()
	g.checkCalls++
	g.mu.Unlock()
	return &model.CheckResult{Action: model.ActionNoSurplus, Message: "No surplus this week."}, nil
}

func (g *stubGateway) BudgetCheck(_ context.Context, userID string) (*model.BudgetCheck, error) {
	return &model.BudgetCheck{Status: "success", Response: "On track."}, nil
}

func (g *stubGateway) SetWeeklyBudget(_ context.Context, _ string, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.budgetErr != nil {
		return g.budgetErr
	}
	g.budgets = append(g.budgets, amount)
	return nil
}

func (g *stubGateway) InsertPayment(_ context.Context, p model.Payment) (model.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.insertErr != nil {
		return model.Payment{}, g.insertErr
	}
	p.ID = model.FlexID(fmt.Sprint(len(g.inserted) + 1))
	g.inserted = append(g.inserted, p)
	return p, nil
}

// ─── Harness ────────────────────────────────────────────────────

func testSession(id string) *model.Session {
	return &model.Session{
		AccessToken: "tok-" + id,
		ExpiresAt:   time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
		User:        model.User{ID: id, Email: id + "@example.com"},
	}
}

type harness struct {
	app   App
	sess  *fakeSession
	gw    *stubGateway
	saved []config.Config
}

func newHarness(t *testing.T, delayMS int) *harness {
	t.Helper()
	h := &harness{sess: &fakeSession{}, gw: &stubGateway{}}
	cfg := config.DefaultConfig()
	cfg.TUI.TabSwitchDelayMS = delayMS
	h.app = NewApp(Deps{
		Session: h.sess,
		Gateway: h.gw,
		Config:  cfg,
		SaveConfig: func(c config.Config) error {
			h.saved = append(h.saved, c)
			return nil
		},
		Now: func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) },
	})
	h.update(tea.WindowSizeMsg{Width: 140, Height: 45})
	return h
}

// update applies msg and runs the resulting commands until the app has
// no more results of its own to process.
func (h *harness) update(msg tea.Msg) {
	m, cmd := h.app.Update(msg)
	h.app = m.(App)
	h.pump(cmd)
}

func (h *harness) pump(cmd tea.Cmd) {
	for range 20 {
		msgs := collect(cmd)
		if len(msgs) == 0 {
			return
		}
		var next []tea.Cmd
		for _, msg := range msgs {
			m, c := h.app.Update(msg)
			h.app = m.(App)
			next = append(next, c)
		}
		cmd = tea.Batch(next...)
	}
}

func (h *harness) key(k string) {
	switch k {
	case "enter":
		h.update(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		h.update(tea.KeyMsg{Type: tea.KeyEsc})
	default:
		h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

func (h *harness) signIn(id string) {
	h.update(sessionMsg{ev: session.Event{Type: session.EventSignedIn, Session: testSession(id)}})
}

// collect runs cmd and its batches, keeping the messages the app
// produces itself. Timers and subscriptions that do not answer promptly
// are abandoned.
func collect(cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	var walk func(tea.Cmd)
	walk = func(c tea.Cmd) {
		if c == nil {
			return
		}
		ch := make(chan tea.Msg, 1)
		go func() { ch <- c() }()
		select {
		case msg := <-ch:
			switch msg := msg.(type) {
			case tea.BatchMsg:
				for _, c := range msg {
					walk(c)
				}
			case loadedMsg, actionMsg, authDoneMsg, signOutDoneMsg, restoreDoneMsg:
				out = append(out, msg)
			}
		case <-time.After(100 * time.Millisecond):
		}
	}
	walk(cmd)
	return out
}

// ─── Tests ──────────────────────────────────────────────────────

func TestSignInMountsDashboard(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")

	require.True(t, h.app.restored)
	assert.Equal(t, "u1", h.app.userID)
	assert.Equal(t, screenDashboard, h.app.activeTab)
	assert.True(t, h.gw.called("Dashboard:u1"))
	assert.True(t, h.app.dash.loaded)
	assert.Contains(t, h.app.View(), "Welcome back, Asha")
}

func TestSignedOutShowsAuthForm(t *testing.T) {
	h := newHarness(t, 0)
	h.update(sessionMsg{ev: session.Event{Type: session.EventInitialSession}})

	require.NotNil(t, h.app.auth.form)
	assert.Contains(t, h.app.View(), "Sign in")
	assert.Empty(t, h.gw.calls)
}

func TestTabSwitchWaitsForDelay(t *testing.T) {
	h := newHarness(t, 300)
	h.signIn("u1")

	m, _ := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	h.app = m.(App)
	require.True(t, h.app.switching)
	assert.Equal(t, screenDashboard, h.app.activeTab)
	assert.False(t, h.gw.called("Spending:u1"))
	first := h.app.switchSeq

	// A second switch supersedes the first.
	m, _ = h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	h.app = m.(App)

	h.update(tabMountMsg{seq: first})
	assert.True(t, h.app.switching, "superseded mount was applied")

	h.update(tabMountMsg{seq: h.app.switchSeq})
	assert.False(t, h.app.switching)
	assert.Equal(t, screenBudget, h.app.activeTab)
	assert.True(t, h.gw.called("PaymentStatus:u1"))
	assert.True(t, h.app.budget.loaded)
}

func TestEnteringTabAlwaysRefetches(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")

	h.key("s")
	gen := h.app.spend.gen
	h.key("d")
	h.key("s")
	assert.Greater(t, h.app.spend.gen, gen)
}

func TestSignOutResetsScreensAndDropsLateResponses(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")
	require.True(t, h.app.dash.loaded)

	// A refresh is in flight when the session ends.
	m, cmd := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	h.app = m.(App)
	late := collect(cmd)
	require.NotEmpty(t, late)

	h.key("L")
	assert.Equal(t, 1, h.sess.signOuts)
	h.update(sessionMsg{ev: session.Event{Type: session.EventSignedOut}})

	assert.Empty(t, h.app.userID)
	assert.False(t, h.app.dash.loaded)
	require.NotNil(t, h.app.auth.form)

	for _, msg := range late {
		h.update(msg)
	}
	assert.False(t, h.app.dash.loaded, "response for the signed-out user was applied")
}

func TestUserSwitchDropsPreviousUsersData(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")

	m, cmd := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	h.app = m.(App)
	late := collect(cmd)

	h.signIn("u2")
	require.True(t, h.app.dash.loaded)
	gen := h.app.dash.gen
	for _, msg := range late {
		h.update(msg)
	}
	assert.Equal(t, gen, h.app.dash.gen)
	assert.Equal(t, "u2", h.app.userID)
}

func TestCheckPaymentsIgnoresDoubleTrigger(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")

	m, first := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	h.app = m.(App)
	require.True(t, h.app.dash.processing)

	m, second := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	h.app = m.(App)
	assert.Nil(t, second)

	h.pump(first)
	assert.Equal(t, 1, h.gw.checkCalls)
	assert.False(t, h.app.dash.processing)
	assert.Equal(t, "No surplus this week.", h.app.dash.status)
}

func TestBudgetSetSuccessClearsInput(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")
	h.key("b")

	h.key("e")
	require.True(t, h.app.planner.editing)
	h.key("5000")
	h.key("enter")

	assert.Equal(t, []float64{5000}, h.gw.budgets)
	assert.Empty(t, h.app.planner.input.Value())
	assert.Nil(t, h.app.alert)
	assert.Contains(t, h.app.budget.status, "5,000")
}

func TestBudgetSetFailureKeepsInput(t *testing.T) {
	h := newHarness(t, 0)
	h.gw.budgetErr = &apperr.ServerError{Op: "set budget", Status: 500, Message: "boom"}
	h.signIn("u1")
	h.key("b")

	h.key("e")
	h.key("5000")
	h.key("enter")

	assert.Equal(t, "5000", h.app.planner.input.Value())
	require.NotNil(t, h.app.alert)
	assert.Contains(t, h.app.alert.body, "Failed to set budget")

	// Any key dismisses the alert and nothing else.
	h.key("q")
	assert.Nil(t, h.app.alert)
	assert.Equal(t, screenBudget, h.app.activeTab)
}

func TestBudgetCheckNetworkErrorShowsStatus(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")
	h.key("b")

	act := actionMsg{
		screen: screenBudget,
		action: actBudgetCheck,
		userID: "u1",
		err:    &apperr.NetworkError{Op: "budget check", Err: errors.New("connection refused")},
	}
	h.app.budget.processing = true
	h.update(act)

	assert.Nil(t, h.app.alert)
	assert.Equal(t, "Budget analysis failed: "+apperr.Message(act.err), h.app.budget.status)
}

func TestAddPaymentSuccessResetsForm(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")
	h.key("p")
	h.key("3")
	require.NotNil(t, h.app.payments.form)

	*h.app.payments.vals = model.PaymentForm{
		Name: "Rent", Amount: "12000", Category: "housing",
		Frequency: "monthly", Method: "hdfc1234", DueDate: "2026-03-05", Autopay: true,
	}
	m, cmd := h.app.submitPayment()
	h.app = m.(App)
	h.pump(cmd)

	require.Len(t, h.gw.inserted, 1)
	assert.Equal(t, "u1", h.gw.inserted[0].AuthID)
	assert.Equal(t, model.StatusActive, h.gw.inserted[0].Status)
	assert.Equal(t, model.DefaultPaymentForm(), *h.app.payments.vals)
	require.NotNil(t, h.app.alert)
	assert.Equal(t, "Payment/Bill added successfully!", h.app.alert.body)
}

func TestAddPaymentFailureKeepsValues(t *testing.T) {
	h := newHarness(t, 0)
	h.gw.insertErr = &apperr.ServerError{Op: "insert payment", Status: 409, Message: "duplicate"}
	h.signIn("u1")
	h.key("p")
	h.key("3")

	form := model.PaymentForm{
		Name: "Rent", Amount: "12000", Category: "housing",
		Frequency: "monthly", Method: "sbi5678", DueDate: "2026-03-05",
	}
	*h.app.payments.vals = form
	m, cmd := h.app.submitPayment()
	h.app = m.(App)
	h.pump(cmd)

	assert.Equal(t, form, *h.app.payments.vals)
	require.NotNil(t, h.app.alert)
	assert.True(t, strings.HasPrefix(h.app.alert.body, "Error adding payment: "))
}

func TestAddPaymentValidation(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")
	h.key("p")
	h.key("3")

	*h.app.payments.vals = model.PaymentForm{Name: "Rent"}
	m, _ := h.app.submitPayment()
	h.app = m.(App)

	require.NotNil(t, h.app.alert)
	assert.Equal(t, "Please fill all fields.", h.app.alert.body)
	assert.Empty(t, h.gw.inserted)
	assert.False(t, h.app.pay.processing)
}

func TestAddPaymentRequiresSession(t *testing.T) {
	h := newHarness(t, 0)
	m, _ := h.app.submitPayment()
	h.app = m.(App)

	require.NotNil(t, h.app.alert)
	assert.Equal(t, "You must be logged in to add a payment.", h.app.alert.body)
}

func TestProfileWriteFailureOffersRetry(t *testing.T) {
	h := newHarness(t, 0)
	h.sess.signUpErr = &apperr.ProfileWriteError{UserID: "u-new", Err: errors.New("insert failed")}
	h.update(sessionMsg{ev: session.Event{Type: session.EventInitialSession}})

	h.app.auth.mode = modeSignUp
	*h.app.auth.vals = authValues{Name: "Asha", Email: "asha@example.com", Password: "pw"}
	h.pump(h.app.authCmd(modeSignUp, *h.app.auth.vals))

	require.True(t, h.app.auth.profilePending)
	require.NotNil(t, h.app.alert)
	h.key("x")
	assert.Contains(t, h.app.View(), "Finish creating your account")

	h.key("R")
	assert.Equal(t, 1, h.sess.retries)
	assert.False(t, h.app.auth.profilePending)
}

func TestSettingsRefreshIntervalValidation(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")
	h.key("x")
	require.Equal(t, screenSettings, h.app.activeTab)

	for h.app.settings.cursor < settingsFieldRefreshInterval {
		h.key("j")
	}
	h.key("enter")
	require.True(t, h.app.settings.editing)
	h.app.settings.input.SetValue("5")
	h.key("enter")
	assert.Error(t, h.app.settings.saveErr)
	assert.Empty(t, h.saved)

	h.key("enter")
	h.app.settings.input.SetValue("30")
	h.key("enter")
	require.NoError(t, h.app.settings.saveErr)
	assert.Equal(t, 30*time.Second, h.app.refreshInterval)
	require.Len(t, h.saved, 1)
	assert.Equal(t, 30, h.saved[0].TUI.RefreshIntervalSec)
}

func TestNarrowTerminal(t *testing.T) {
	h := newHarness(t, 0)
	h.update(tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Contains(t, h.app.View(), "Terminal too narrow")
}

func TestEveryTabRenders(t *testing.T) {
	h := newHarness(t, 0)
	h.signIn("u1")
	for _, k := range []string{"s", "p", "b", "x", "d"} {
		h.key(k)
		view := h.app.View()
		assert.NotEmpty(t, view, "tab %s", k)
		assert.Contains(t, view, "Dashboard")
	}
}
