package components

import (
	"github.com/pennypal/pennypal/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusTone selects the color of the status message.
type StatusTone int

const (
	ToneNeutral StatusTone = iota
	ToneOK
	ToneWarn
	ToneError
)

// RenderStatusBar renders the bottom bar: key hints on the left, the
// current screen's status message in the middle and freshness on the right.
func RenderStatusBar(width int, status string, tone StatusTone, right string) string {
	t := theme.Active

	bg := lipgloss.NewStyle().Background(t.Surface)
	hints := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	msgColor := t.TextMuted
	switch tone {
	case ToneOK:
		msgColor = t.Positive
	case ToneWarn:
		msgColor = t.Caution
	case ToneError:
		msgColor = t.Negative
	}
	msgStyle := lipgloss.NewStyle().Foreground(msgColor).Background(t.Surface)

	left := hints.Render(" [?]help  [L]ogout  [q]uit")
	if status != "" {
		left += bg.Render("  ") + msgStyle.Render(status)
	}
	r := hints.Render(right + " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(r)
	if padding < 1 {
		return bg.Width(width).MaxWidth(width).Render(left)
	}
	return left + bg.Width(padding).Render("") + r
}
