package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/cli"
	"github.com/pennypal/pennypal/internal/model"
	"github.com/pennypal/pennypal/internal/tui/components"
	"github.com/pennypal/pennypal/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type payView int

const (
	payViewAutopay payView = iota
	payViewDue
	payViewAdd
)

var payViewNames = []string{"Auto-payments", "Due items", "+ Add new"}

// paymentsState is the Payments screen's local UI state. vals is shared
// by App copies so the huh form's bindings stay live.
type paymentsState struct {
	view   payView
	scroll int
	form   *huh.Form
	vals   *model.PaymentForm
}

func newPaymentsState() paymentsState {
	v := model.DefaultPaymentForm()
	return paymentsState{vals: &v}
}

func (s *paymentsState) rebuildForm() tea.Cmd {
	s.form = newPaymentForm(s.vals)
	return s.form.Init()
}

func huhOptions(opts []model.Option) []huh.Option[string] {
	out := make([]huh.Option[string], len(opts))
	for i, o := range opts {
		out[i] = huh.NewOption(o.Label, o.Value)
	}
	return out
}

func newPaymentForm(v *model.PaymentForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Payment / bill name").Placeholder("Electricity").Value(&v.Name),
			huh.NewInput().Title("Amount (₹)").Placeholder("1500").Value(&v.Amount),
			huh.NewSelect[string]().Title("Category").Options(huhOptions(model.Categories)...).Value(&v.Category),
			huh.NewSelect[string]().Title("Frequency").Options(huhOptions(model.Frequencies)...).Value(&v.Frequency),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Payment method").Options(huhOptions(model.Methods)...).Value(&v.Method),
			huh.NewInput().Title("Due date").Placeholder(model.DateLayout).Value(&v.DueDate),
			huh.NewConfirm().Title("Enable autopay?").Affirmative("Yes").Negative("No").Value(&v.Autopay),
		),
	).WithTheme(formTheme()).WithShowHelp(true).WithWidth(60)
}

func (a App) updatePaymentsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "1", "2", "3":
		a.payments.view = payView(key[0] - '1')
		a.payments.scroll = 0
		if a.payments.view == payViewAdd && a.payments.form == nil {
			cmd := a.payments.rebuildForm()
			return a, cmd
		}
		return a, nil
	case "j", "down":
		a.payments.scroll++
	case "k", "up":
		if a.payments.scroll > 0 {
			a.payments.scroll--
		}
	case "r":
		cmd := a.mount(screenPayments)
		return a, cmd
	}
	return a, nil
}

func (a App) updatePaymentForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.pay.processing {
		return a, nil
	}
	form, cmd := a.payments.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.payments.form = f
	}
	switch a.payments.form.State {
	case huh.StateCompleted:
		return a.submitPayment()
	case huh.StateAborted:
		a.payments.view = payViewAutopay
		cmd = a.payments.rebuildForm()
		return a, cmd
	}
	return a, cmd
}

// submitPayment validates the form and inserts the row. Failures raise an
// alert and keep the typed values.
func (a App) submitPayment() (tea.Model, tea.Cmd) {
	if a.userID == "" {
		a = a.raise("Not signed in", "You must be logged in to add a payment.", components.ToneError)
		cmd := a.payments.rebuildForm()
		return a, cmd
	}
	p, err := a.payments.vals.ToPayment(a.userID)
	if err != nil {
		a = a.raise("Could not add payment", apperr.Message(err), components.ToneError)
		cmd := a.payments.rebuildForm()
		return a, cmd
	}
	if !a.pay.startAction() {
		return a, nil
	}
	a.pay.setStatus("Saving "+p.Name+"...", components.ToneNeutral)

	gw := a.gw
	cmd := tea.Batch(
		actionCmd(screenPayments, actAddPayment, a.userID, func(ctx context.Context) (any, error) {
			return gw.InsertPayment(ctx, p)
		}),
		a.startSpin(),
	)
	return a, cmd
}

func (a App) onPaymentsAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.action != actAddPayment {
		return a, nil
	}
	if msg.err != nil {
		body := "Error adding payment: " + apperr.Message(msg.err)
		if apperr.KindOf(msg.err) == apperr.KindAuth {
			body = "You must be logged in to add a payment."
		}
		a.pay.setStatus("Payment not added", components.ToneError)
		a = a.raise("Could not add payment", body, components.ToneError)
		cmd := a.payments.rebuildForm()
		return a, cmd
	}

	added, _ := msg.result.(model.Payment)
	*a.payments.vals = model.DefaultPaymentForm()
	a.pay.setStatus("Added "+added.Name, components.ToneOK)
	a = a.raise("Payment added", "Payment/Bill added successfully!", components.ToneOK)
	cmd := tea.Batch(a.payments.rebuildForm(), a.mount(screenPayments))
	return a, cmd
}

// paymentSummary derives the summary cards from the screen's own data.
func paymentSummary(d paymentsData) (total float64, active int) {
	for _, p := range d.autopay {
		if p.Active() {
			total += p.Amount
			active++
		}
	}
	return total, active
}

func (a App) renderPaymentsTab(cw, h int) string {
	t := theme.Active
	d := a.pay.data
	today := a.now()

	var b strings.Builder

	total, active := paymentSummary(d)
	var bills []model.Bill
	if d.bills != nil {
		bills = d.bills.Bills
	}
	high := model.CountPriority(bills, model.PriorityHigh, today)
	highTone := t.Positive
	if high > 0 {
		highTone = t.Negative
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Auto-pay total", Value: cli.FormatRupees(total)},
		{Label: "Active payments", Value: fmt.Sprint(active)},
		{Label: "High priority dues", Value: fmt.Sprint(high), Tone: highTone},
	}, cw))
	b.WriteString("\n")
	b.WriteString(a.renderPaySubTabs())
	b.WriteString("\n")

	rows := h - lipgloss.Height(b.String()) - 4
	switch a.payments.view {
	case payViewAdd:
		b.WriteString(components.ContentCard("Add payment / bill", a.renderPaymentForm(), cw))
	case payViewDue:
		if !a.pay.loaded {
			b.WriteString(a.renderPlaceholder(cw, a.pay.loading, a.pay.err))
			break
		}
		b.WriteString(components.ContentCard("Due items", a.renderDueList(d.bills, components.CardInnerWidth(cw), rows), cw))
	default:
		if !a.pay.loaded {
			b.WriteString(a.renderPlaceholder(cw, a.pay.loading, a.pay.err))
			break
		}
		b.WriteString(components.ContentCard("Automated payments", a.renderAutopayList(d.autopay, components.CardInnerWidth(cw), rows), cw))
	}
	return b.String()
}

func (a App) renderPaySubTabs() string {
	t := theme.Active
	parts := make([]string, len(payViewNames))
	for i, name := range payViewNames {
		label := fmt.Sprintf("[%d] %s", i+1, name)
		if payView(i) == a.payments.view {
			parts[i] = components.Button(label, components.Primary, true, "")
		} else {
			parts[i] = components.Button(label, components.Ghost, false, "")
		}
	}
	return lipgloss.NewStyle().Background(t.Background).Render(" ") + components.ButtonRow(parts...)
}

func (a App) renderPaymentForm() string {
	t := theme.Active
	if a.pay.processing {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
			Render(a.spinner.View() + " Saving payment...")
	}
	if a.payments.form == nil {
		return ""
	}
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
		Render("[enter] next  [shift+tab] back  [esc] close")
	return a.payments.form.View() + "\n" + hint
}

// window returns the visible slice bounds for n rows starting at scroll.
func window(n, scroll, rows int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	if scroll > n-rows {
		scroll = n - rows
	}
	if scroll < 0 {
		scroll = 0
	}
	end := scroll + rows
	if end > n {
		end = n
	}
	return scroll, end
}

func (a App) renderAutopayList(payments []model.Payment, w, rows int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(payments) == 0 {
		return muted.Render("No automated payments yet. Press 3 to add one.")
	}

	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	nameW := max(w-74, 12)
	format := fmt.Sprintf("%%-%ds %%-15s %%12s %%-10s %%-19s %%-12s", nameW)

	var b strings.Builder
	b.WriteString(head.Render(fmt.Sprintf(format, "Name", "Category", "Amount", "Frequency", "Method", "Due")))
	b.WriteString(head.Render(" Status"))

	start, end := window(len(payments), a.payments.scroll, rows-1)
	for _, p := range payments[start:end] {
		b.WriteString("\n")
		b.WriteString(cell.Render(fmt.Sprintf(format,
			cli.Truncate(p.Name, nameW),
			cli.Truncate(model.LabelFor(model.Categories, p.Category), 15),
			cli.FormatRupees(p.Amount),
			cli.Truncate(model.LabelFor(model.Frequencies, p.Frequency), 10),
			cli.Truncate(model.LabelFor(model.Methods, p.Method), 19),
			cli.FormatDate(p.DueDate),
		)))
		status := p.Status
		tone := t.Caution
		if p.Active() {
			tone = t.Positive
		}
		b.WriteString(lipgloss.NewStyle().Foreground(tone).Background(t.Surface).Render(" " + status))
	}
	if end-start < len(payments) {
		b.WriteString("\n")
		b.WriteString(muted.Render(fmt.Sprintf("%d-%d of %d  [j/k] scroll", start+1, end, len(payments))))
	}

	labels := make([]string, len(payments))
	values := make([]float64, len(payments))
	for i, p := range payments {
		labels[i] = model.LabelFor(model.Categories, p.Category)
		values[i] = p.Amount
	}
	b.WriteString("\n\n")
	b.WriteString(components.BarChart(components.GroupBars(labels, values), min(w, 70), t.Accent, cli.FormatRupees))
	return b.String()
}

func (a App) renderDueList(s *model.BillsSummary, w, rows int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if s == nil || len(s.Bills) == 0 {
		msg := "Nothing due."
		if s != nil && s.Message != "" {
			msg = s.Message
		}
		return muted.Render(msg)
	}

	today := a.now()
	bills := append([]model.Bill(nil), s.Bills...)
	model.SortBills(bills, today)

	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	nameW := max(w-58, 12)
	format := fmt.Sprintf(" %%-%ds %%-15s %%12s  %%-16s", nameW)

	var b strings.Builder
	start, end := window(len(bills), a.payments.scroll, rows-2)
	for i, bill := range bills[start:end] {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(priorityBadge(bill.Classify(today)))
		b.WriteString(cell.Render(fmt.Sprintf(format,
			cli.Truncate(bill.Name, nameW),
			cli.Truncate(model.LabelFor(model.Categories, bill.Category), 15),
			cli.FormatRupees(bill.Amount),
			cli.FormatDue(bill.DueDate, today),
		)))
		if bill.Overdue(today) {
			b.WriteString(lipgloss.NewStyle().Foreground(t.Negative).Background(t.Surface).Bold(true).Render(" OVERDUE"))
		} else if bill.Autopay {
			b.WriteString(muted.Render(" autopay"))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(muted.Render(fmt.Sprintf("%d items · total ", len(bills))))
	b.WriteString(cell.Bold(true).Render(cli.FormatRupees(s.TotalAmount)))
	if end-start < len(bills) {
		b.WriteString(muted.Render(fmt.Sprintf("  ·  %d-%d shown  [j/k] scroll", start+1, end)))
	}
	return b.String()
}

func priorityBadge(p model.Priority) string {
	t := theme.Active
	c := t.Positive
	switch p {
	case model.PriorityHigh:
		c = t.Negative
	case model.PriorityMedium:
		c = t.Caution
	}
	return lipgloss.NewStyle().Foreground(t.TextInverse).Background(c).Bold(true).
		Width(8).Align(lipgloss.Center).Render(strings.ToUpper(string(p)))
}
