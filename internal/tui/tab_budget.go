package tui

import (
	"context"
	"strings"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/cli"
	"github.com/pennypal/pennypal/internal/model"
	"github.com/pennypal/pennypal/internal/tui/components"
	"github.com/pennypal/pennypal/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// plannerState is the Budget Planner's local UI state.
type plannerState struct {
	input    textinput.Model
	editing  bool
	analysis *model.BudgetCheck
}

func newPlannerState() plannerState {
	return plannerState{input: newBudgetInput()}
}

func newBudgetInput() textinput.Model {
	t := theme.Active
	ti := textinput.New()
	ti.Placeholder = "5000"
	ti.Prompt = "₹ "
	ti.CharLimit = 12
	ti.Width = 16
	ti.PromptStyle = lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	ti.TextStyle = lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	ti.Validate = func(s string) error {
		if strings.Trim(s, "0123456789.,") != "" {
			return apperr.Validation("Amount must be a number.")
		}
		return nil
	}
	return ti
}

func (a App) updatePlannerKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "e", "enter":
		if a.budget.processing {
			return a, nil
		}
		a.planner.editing = true
		cmd := a.planner.input.Focus()
		return a, cmd
	case "c":
		if !a.budget.startAction() {
			return a, nil
		}
		a.budget.setStatus("Running budget analysis...", components.ToneNeutral)
		gw := a.gw
		userID := a.userID
		cmd := tea.Batch(
			actionCmd(screenBudget, actBudgetCheck, userID, func(ctx context.Context) (any, error) {
				return gw.BudgetCheck(ctx, userID)
			}),
			a.startSpin(),
		)
		return a, cmd
	case "r":
		cmd := a.mount(screenBudget)
		return a, cmd
	}
	return a, nil
}

func (a App) updatePlannerInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.planner.editing = false
		a.planner.input.Blur()
		return a, nil
	case "enter":
		return a.submitBudget()
	}
	var cmd tea.Cmd
	a.planner.input, cmd = a.planner.input.Update(msg)
	return a, cmd
}

// submitBudget posts the typed weekly budget. The input keeps its value
// until the server accepts it.
func (a App) submitBudget() (tea.Model, tea.Cmd) {
	amount, err := model.ParseAmount(a.planner.input.Value())
	if err != nil {
		return a.raise("Invalid budget", apperr.Message(err), components.ToneError), nil
	}
	if !a.budget.startAction() {
		return a, nil
	}
	a.planner.editing = false
	a.planner.input.Blur()
	a.budget.setStatus("Saving weekly budget...", components.ToneNeutral)

	gw := a.gw
	userID := a.userID
	cmd := tea.Batch(
		actionCmd(screenBudget, actSetBudget, userID, func(ctx context.Context) (any, error) {
			return amount, gw.SetWeeklyBudget(ctx, userID, amount)
		}),
		a.startSpin(),
	)
	return a, cmd
}

func (a App) onPlannerAction(msg actionMsg) (tea.Model, tea.Cmd) {
	switch msg.action {
	case actSetBudget:
		if msg.err != nil {
			a.budget.setStatus("Weekly budget not saved", components.ToneError)
			return a.raise("Could not set budget", "Failed to set budget: "+apperr.Message(msg.err), components.ToneError), nil
		}
		amount, _ := msg.result.(float64)
		a.planner.input.SetValue("")
		a.budget.setStatus("Weekly budget set to "+cli.FormatRupees(amount), components.ToneOK)
		cmd := a.mount(screenBudget)
		return a, cmd

	case actBudgetCheck:
		if msg.err != nil {
			a.budget.setStatus("Budget analysis failed: "+apperr.Message(msg.err), components.ToneError)
			return a, nil
		}
		a.planner.analysis, _ = msg.result.(*model.BudgetCheck)
		a.budget.setStatus("Budget analysis complete", components.ToneOK)
	}
	return a, nil
}

func (a App) renderBudgetTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	if !a.budget.loaded {
		b.WriteString(a.renderPlaceholder(cw, a.budget.loading, a.budget.err))
	} else {
		var info model.BudgetInfo
		if a.budget.data.status != nil {
			info = a.budget.data.status.Budget
		}
		used := 100 - info.PercentageRemaining
		safe, safeTone := "No", t.Negative
		if info.SafeToPay {
			safe, safeTone = "Yes", t.Positive
		}
		b.WriteString(components.MetricCardRow([]components.Metric{
			{Label: "Weekly budget", Value: cli.FormatRupees(info.Budget)},
			{Label: "Spent", Value: cli.FormatRupees(info.Spent), Tone: components.ColorForPct(used)},
			{Label: "Available", Value: cli.FormatRupees(info.Available)},
			{Label: "Safe to pay", Value: safe, Tone: safeTone},
		}, cw))
		b.WriteString("\n")

		barBody := components.BudgetBar("Remaining", info.PercentageRemaining, 10, components.CardInnerWidth(cw)-18)
		if info.Error != "" {
			barBody += "\n" + lipgloss.NewStyle().Foreground(t.Caution).Background(t.Surface).Render(info.Error)
		}
		b.WriteString(components.ContentCard("Budget left this week", barBody, cw))
	}
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Set weekly budget", a.renderBudgetInput(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Budget analysis", a.renderAnalysis(components.CardInnerWidth(cw)), cw))
	return b.String()
}

func (a App) renderBudgetInput() string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(a.planner.input.View())
	b.WriteString("\n\n")
	switch {
	case a.planner.editing:
		b.WriteString(muted.Render("[enter] save  [esc] cancel"))
	default:
		busy := ""
		if a.budget.processing {
			busy = a.spinner.View()
		}
		b.WriteString(components.ButtonRow(
			components.Button("[e] Edit budget", components.Primary, false, ""),
			muted.Render(" "),
			components.Button("[c] Analyze", components.Ghost, false, busy),
		))
	}
	return b.String()
}

func (a App) renderAnalysis(w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	an := a.planner.analysis
	if an == nil {
		return muted.Render("Press c to ask the budget agent for an analysis.")
	}
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(w)
	out := text.Render(string(an.Response))
	if an.Timestamp != "" {
		out += "\n" + muted.Render(an.Timestamp)
	}
	return out
}
