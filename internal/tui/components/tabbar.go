package components

import (
	"github.com/pennypal/pennypal/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines the dashboard screens in display order.
var Tabs = []Tab{
	{Name: "Dashboard", Key: 'd', KeyPos: 0},
	{Name: "Spending", Key: 's', KeyPos: 0},
	{Name: "Payments", Key: 'p', KeyPos: 0},
	{Name: "Budget", Key: 'b', KeyPos: 0},
	{Name: "Settings", Key: 'x', KeyPos: -1},
}

func renderTab(tab Tab, active bool) string {
	t := theme.Active

	if active {
		return lipgloss.NewStyle().
			Foreground(t.TextInverse).
			Background(t.Accent).
			Bold(true).
			Padding(0, 1).
			Render(tab.Name)
	}

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pad := base.Render(" ")

	if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
		return pad +
			base.Render(tab.Name[:tab.KeyPos]) +
			key.Render(tab.Name[tab.KeyPos:tab.KeyPos+1]) +
			base.Render(tab.Name[tab.KeyPos+1:]) +
			pad
	}
	return pad + base.Render(tab.Name) +
		dim.Render("[") + key.Render(string(tab.Key)) + dim.Render("]") + pad
}

// TabVisualWidth returns the rendered width of a tab. Mouse hit testing
// relies on it matching RenderTabBar.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders the tab row followed by a right-aligned label,
// typically the signed-in user.
func RenderTabBar(activeIdx, width int, right string) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	bar := ""
	for i, tab := range Tabs {
		if i > 0 {
			bar += sep
		}
		bar += renderTab(tab, i == activeIdx)
	}

	rightStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	right = rightStyle.Render(right + " ")

	gap := width - lipgloss.Width(bar) - lipgloss.Width(right)
	if gap < 1 {
		return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(bar)
	}
	fill := lipgloss.NewStyle().Background(t.Surface).Width(gap).Render("")
	return bar + fill + right
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
