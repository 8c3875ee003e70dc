package tui

import (
	"context"
	"time"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/model"
	"github.com/pennypal/pennypal/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// Screen indexes match components.Tabs.
const (
	screenDashboard = iota
	screenSpending
	screenPayments
	screenBudget
	screenSettings
)

// viewState is the local state of one screen. Screens never share data.
type viewState[T any] struct {
	data       T
	loaded     bool
	loading    bool
	processing bool
	status     string
	tone       components.StatusTone
	err        error
	gen        int
	fetchedAt  time.Time
}

// begin marks a fetch in flight and returns its generation.
func (v *viewState[T]) begin() int {
	v.gen++
	v.loading = true
	return v.gen
}

// accept applies a fetch result. Results of a superseded generation, or
// fetched for a user other than the current one, are dropped.
func (v *viewState[T]) accept(msg loadedMsg, userID string, now time.Time) bool {
	if msg.gen != v.gen || msg.userID != userID {
		return false
	}
	v.loading = false
	if msg.err != nil {
		v.err = msg.err
		v.setStatus(apperr.Message(msg.err), components.ToneError)
		return true
	}
	data, ok := msg.data.(T)
	if !ok {
		return false
	}
	if v.err != nil {
		v.status = ""
	}
	v.data = data
	v.loaded = true
	v.err = nil
	v.fetchedAt = now
	return true
}

// startAction marks a write in flight. It reports false while another
// write on the same screen is still running.
func (v *viewState[T]) startAction() bool {
	if v.processing {
		return false
	}
	v.processing = true
	return true
}

// finish clears the processing flag for a result that still belongs to
// the current user.
func (v *viewState[T]) finish(msg actionMsg, userID string) bool {
	if msg.userID != userID {
		return false
	}
	v.processing = false
	return true
}

func (v *viewState[T]) setStatus(s string, tone components.StatusTone) {
	v.status = s
	v.tone = tone
}

// reset drops everything and invalidates fetches still in flight.
func (v *viewState[T]) reset() {
	*v = viewState[T]{gen: v.gen + 1}
}

// ─── Messages ───────────────────────────────────────────────────

// loadedMsg carries a screen fetch result.
type loadedMsg struct {
	screen int
	gen    int
	userID string
	data   any
	err    error
}

type actionKind int

const (
	actCheckPayments actionKind = iota
	actBudgetCheck
	actSetBudget
	actAddPayment
)

// actionMsg carries the result of a write.
type actionMsg struct {
	screen int
	action actionKind
	userID string
	result any
	err    error
}

// tabMountMsg fires when the tab switch delay elapses.
type tabMountMsg struct{ seq int }

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// ─── Screen data ────────────────────────────────────────────────

type dashboardData struct {
	dash      *model.Dashboard
	status    *model.PaymentStatus
	statusErr error
}

type spendingData struct {
	spending *model.Spending
	bills    *model.BillsSummary
}

type paymentsData struct {
	autopay []model.Payment
	bills   *model.BillsSummary
}

type budgetData struct {
	status *model.PaymentStatus
}

// load runs the reads a screen needs. Reads within a screen run
// concurrently and fail together.
func load(ctx context.Context, gw Gateway, screen int, userID string) (any, error) {
	g, ctx := errgroup.WithContext(ctx)

	switch screen {
	case screenDashboard:
		var d dashboardData
		g.Go(func() (err error) {
			d.dash, err = gw.Dashboard(ctx, userID)
			return err
		})
		g.Go(func() error {
			// Agent status is secondary; the card shows it as unavailable.
			d.status, d.statusErr = gw.PaymentStatus(ctx, userID)
			return nil
		})
		return d, g.Wait()

	case screenSpending:
		var d spendingData
		g.Go(func() (err error) {
			d.spending, err = gw.Spending(ctx, userID)
			return err
		})
		g.Go(func() (err error) {
			d.bills, err = gw.PendingBills(ctx, userID)
			return err
		})
		return d, g.Wait()

	case screenPayments:
		var d paymentsData
		g.Go(func() (err error) {
			d.autopay, err = gw.AutopayPayments(ctx, userID)
			return err
		})
		g.Go(func() (err error) {
			d.bills, err = gw.PendingBills(ctx, userID)
			return err
		})
		return d, g.Wait()

	case screenBudget:
		var d budgetData
		g.Go(func() (err error) {
			d.status, err = gw.PaymentStatus(ctx, userID)
			return err
		})
		return d, g.Wait()
	}
	return nil, nil
}

func fetchCmd(gw Gateway, screen, gen int, userID string) tea.Cmd {
	return func() tea.Msg {
		data, err := load(context.Background(), gw, screen, userID)
		return loadedMsg{screen: screen, gen: gen, userID: userID, data: data, err: err}
	}
}

func actionCmd(screen int, act actionKind, userID string, fn func(context.Context) (any, error)) tea.Cmd {
	return func() tea.Msg {
		res, err := fn(context.Background())
		return actionMsg{screen: screen, action: act, userID: userID, result: res, err: err}
	}
}
