package components

import (
	"fmt"

	"github.com/pennypal/pennypal/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForPct maps budget usage on the 0-100 scale to a tone: positive
// under 60, caution under 90, negative beyond.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 90:
		return t.Negative
	case pct >= 60:
		return t.Caution
	default:
		return t.Positive
	}
}

// BudgetBar renders a labeled usage bar for a 0-100 percentage. Usage
// above 100 fills the bar and keeps the true figure in the label.
func BudgetBar(label string, pct float64, labelW, barWidth int) string {
	t := theme.Active

	fill := pct / 100
	if fill < 0 {
		fill = 0
	}
	if fill > 1 {
		fill = 1
	}
	if barWidth < 4 {
		barWidth = 4
	}

	tone := ColorForPct(pct)
	bar := progress.New(
		progress.WithSolidFill(string(tone)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(tone).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	out := bar.ViewAs(fill) + space + pctStyle.Render(fmt.Sprintf("%5.1f%%", pct))
	if labelW > 0 {
		out = labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + space + out
	}
	return out
}
