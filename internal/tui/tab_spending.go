package tui

import (
	"strings"

	"github.com/pennypal/pennypal/internal/cli"
	"github.com/pennypal/pennypal/internal/model"
	"github.com/pennypal/pennypal/internal/tui/components"
	"github.com/pennypal/pennypal/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderSpendingTab(cw int) string {
	t := theme.Active
	d := a.spend.data

	if !a.spend.loaded {
		return a.renderPlaceholder(cw, a.spend.loading, a.spend.err)
	}

	var sp model.Spending
	if d.spending != nil {
		sp = *d.spending
	}

	var b strings.Builder
	b.WriteString(spendingCards(sp, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	barBody := components.BudgetBar("Spent", sp.Percentage, 10, inner-18)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	switch {
	case sp.Budget <= 0:
		barBody += "\n" + muted.Render("No weekly budget set. Set one in the Budget tab.")
	case sp.Total > sp.Budget:
		over := lipgloss.NewStyle().Foreground(t.Negative).Background(t.Surface).Bold(true)
		barBody += "\n" + over.Render("Over budget by "+cli.FormatRupees(sp.Total-sp.Budget))
	default:
		barBody += "\n" + muted.Render(cli.FormatRupees(sp.Remaining())+" left to spend this week")
	}
	b.WriteString(components.ContentCard("Weekly spending", barBody, cw))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Upcoming bills by category", renderBillsByCategory(d.bills, inner), cw))
	return b.String()
}

// renderBillsByCategory charts pending bill amounts per category.
func renderBillsByCategory(s *model.BillsSummary, w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if s == nil || len(s.Bills) == 0 {
		msg := "No pending bills."
		if s != nil && s.Message != "" {
			msg = s.Message
		}
		return muted.Render(msg)
	}

	labels := make([]string, len(s.Bills))
	values := make([]float64, len(s.Bills))
	for i, bill := range s.Bills {
		labels[i] = model.LabelFor(model.Categories, bill.Category)
		if labels[i] == "" {
			labels[i] = "Other"
		}
		values[i] = bill.Amount
	}
	chart := components.BarChart(components.GroupBars(labels, values), w, t.Accent, cli.FormatRupees)

	total := muted.Render("Total due  ") +
		lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true).Render(cli.FormatRupees(s.TotalAmount))
	return chart + "\n\n" + total
}
