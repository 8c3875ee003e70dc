package components

import (
	"github.com/pennypal/pennypal/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// ButtonKind is the closed set of control variants.
type ButtonKind int

const (
	Primary ButtonKind = iota
	Outline
	Ghost
	Danger
)

func (k ButtonKind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Outline:
		return "outline"
	case Ghost:
		return "ghost"
	case Danger:
		return "danger"
	}
	return "unknown"
}

// buttonStyle returns the fixed style bundle of a variant. Unknown kinds
// render as Primary.
func buttonStyle(kind ButtonKind) lipgloss.Style {
	t := theme.Active
	base := lipgloss.NewStyle().Padding(0, 2).Bold(true)

	switch kind {
	case Outline:
		return base.Foreground(t.Accent).Background(t.Surface).
			Border(t.Frame).BorderForeground(t.Accent).BorderBackground(t.Surface).
			Padding(0, 1)
	case Ghost:
		return base.Foreground(t.TextMuted).Background(t.Surface).Bold(false)
	case Danger:
		return base.Foreground(t.TextInverse).Background(t.Negative)
	default:
		return base.Foreground(t.TextInverse).Background(t.Accent)
	}
}

// Button renders a single-line control. A focused button is marked so it
// reads as the current selection in every theme. A busy button shows the
// spinner frame in place of its label.
func Button(label string, kind ButtonKind, focused bool, busy string) string {
	style := buttonStyle(kind)
	if focused {
		style = style.Underline(true)
	}
	if busy != "" {
		label = busy + " " + label
	}
	return style.Render(label)
}

// ButtonRow lays out buttons left to right with one column of spacing.
func ButtonRow(buttons ...string) string {
	t := theme.Active
	gap := lipgloss.NewStyle().Background(t.Surface).Render(" ")
	parts := make([]string, 0, 2*len(buttons))
	for i, b := range buttons {
		if i > 0 {
			parts = append(parts, gap)
		}
		parts = append(parts, b)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}
