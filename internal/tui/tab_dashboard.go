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
	"github.com/charmbracelet/lipgloss"
)

func (a App) updateDashboardKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "r":
		cmd := a.mount(screenDashboard)
		return a, cmd
	case "c":
		if !a.dash.startAction() {
			return a, nil
		}
		a.dash.setStatus("Checking payments...", components.ToneNeutral)
		gw := a.gw
		userID := a.userID
		cmd := tea.Batch(
			actionCmd(screenDashboard, actCheckPayments, userID, func(ctx context.Context) (any, error) {
				return gw.CheckPayments(ctx, userID)
			}),
			a.startSpin(),
		)
		return a, cmd
	}
	return a, nil
}

// onDashboardAction reports a payment check in the status line. The
// check may have paid bills, so the snapshot is re-fetched.
func (a App) onDashboardAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if apperr.KindOf(msg.err) == apperr.KindAuth {
			return a.raise("Not signed in", apperr.Message(msg.err), components.ToneError), nil
		}
		a.dash.setStatus("Payment check failed: "+apperr.Message(msg.err), components.ToneError)
		return a, nil
	}
	res, _ := msg.result.(*model.CheckResult)
	if res == nil {
		a.dash.setStatus("Payment check complete.", components.ToneOK)
		cmd := a.mount(screenDashboard)
		return a, cmd
	}
	tone := components.ToneOK
	if res.Action == model.ActionError {
		tone = components.ToneError
	} else if res.Action == model.ActionNoSurplus {
		tone = components.ToneWarn
	}
	a.dash.setStatus(res.Summary(), tone)
	cmd := a.mount(screenDashboard)
	return a, cmd
}

func (a App) renderDashboardTab(cw int) string {
	t := theme.Active
	d := a.dash.data

	if !a.dash.loaded {
		return a.renderPlaceholder(cw, a.dash.loading, a.dash.err)
	}

	headStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Background).Bold(true)
	name := a.current.DisplayName()
	if d.dash != nil && d.dash.User.Name != "" {
		name = d.dash.User.Name
	}

	var b strings.Builder
	b.WriteString(headStyle.Render(" Welcome back, " + name))
	b.WriteString("\n")

	var sp model.Spending
	if d.dash != nil {
		sp = d.dash.Spending
	}
	b.WriteString(spendingCards(sp, cw))
	b.WriteString("\n")

	barW := components.CardInnerWidth(cw) - 18
	b.WriteString(components.ContentCard("Budget used",
		components.BudgetBar("This week", sp.Percentage, 10, barW), cw))
	b.WriteString("\n")

	// Insights and agents side by side, stacked when narrow.
	var insights []model.Insight
	if d.dash != nil {
		insights = d.dash.Insights
	}
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Insights", renderInsights(insights, components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Agents", renderAgents(d.status, d.statusErr), cw))
	} else {
		widths := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Insights", renderInsights(insights, components.CardInnerWidth(widths[0])), widths[0]),
			components.ContentCard("Agents", renderAgents(d.status, d.statusErr), widths[1]),
		}))
	}
	b.WriteString("\n")

	busy := ""
	if a.dash.processing {
		busy = a.spinner.View()
	}
	b.WriteString(lipgloss.NewStyle().Background(t.Background).Render(" "))
	b.WriteString(components.ButtonRow(
		components.Button("[c] Check payments", components.Primary, false, busy),
		components.Button("[r] Refresh", components.Ghost, false, ""),
	))
	return b.String()
}

// spendingCards renders budget, spent, remaining and usage.
func spendingCards(sp model.Spending, cw int) string {
	return components.MetricCardRow([]components.Metric{
		{Label: "Weekly budget", Value: cli.FormatRupees(sp.Budget)},
		{Label: "Spent", Value: cli.FormatRupees(sp.Total), Tone: components.ColorForPct(sp.Percentage)},
		{Label: "Remaining", Value: cli.FormatRupees(sp.Remaining())},
		{Label: "Used", Value: cli.FormatPercent(sp.Percentage), Tone: components.ColorForPct(sp.Percentage)},
	}, cw)
}

func renderInsights(insights []model.Insight, w int) string {
	t := theme.Active
	if len(insights) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No insights yet.")
	}
	bullet := func(kind string) lipgloss.Style {
		c := t.Info
		switch kind {
		case "warning", "alert":
			c = t.Caution
		case "success", "tip":
			c = t.Positive
		}
		return lipgloss.NewStyle().Foreground(c).Background(t.Surface)
	}
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(w - 2)

	lines := make([]string, len(insights))
	for i, in := range insights {
		lines[i] = lipgloss.JoinHorizontal(lipgloss.Top, bullet(in.Type).Render("● "), text.Render(in.Text))
	}
	return strings.Join(lines, "\n")
}

func renderAgents(st *model.PaymentStatus, err error) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if st == nil {
		msg := "Agent status unavailable."
		if err != nil {
			msg = apperr.Message(err)
		}
		return label.Render(msg)
	}

	state := func(s string) string {
		c := t.Caution
		switch strings.ToLower(s) {
		case "active", "online", "ok", "running", "ready":
			c = t.Positive
		case "", "offline", "error", "down":
			c = t.Negative
		}
		if s == "" {
			s = "unknown"
		}
		return lipgloss.NewStyle().Foreground(c).Background(t.Surface).Render(s)
	}

	rows := []struct{ k, v string }{
		{"Budget agent", state(st.Agents.BudgetAgent)},
		{"Payment agent", state(st.Agents.PaymentAgent)},
		{"NLP agent", state(st.Agents.NLPAgent)},
		{"Orchestrator", state(st.Agents.Orchestrator)},
		{"Pending bills", lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Render(fmt.Sprint(st.Agents.PendingBills))},
	}
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(label.Render(fmt.Sprintf("%-15s", r.k)))
		b.WriteString(r.v)
	}
	return b.String()
}

// renderPlaceholder is shown before a screen's first successful fetch.
func (a App) renderPlaceholder(cw int, loading bool, err error) string {
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	switch {
	case err != nil:
		body := lipgloss.NewStyle().Foreground(t.Negative).Background(t.Surface).Render(apperr.Message(err)) +
			"\n\n" + style.Render("Press r to try again.")
		return components.ContentCard("Could not load", body, cw)
	case loading:
		return components.ContentCard("", style.Render(a.spinner.View()+" Loading..."), cw)
	}
	return components.ContentCard("", style.Render("Nothing to show yet. Press r to load."), cw)
}
