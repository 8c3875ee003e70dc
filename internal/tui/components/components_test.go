package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestTabVisualWidth(t *testing.T) {
	for _, tab := range Tabs {
		assert.Equal(t, len(tab.Name)+2, TabVisualWidth(tab, true), tab.Name)
	}
	assert.Equal(t, len("Dashboard")+2, TabVisualWidth(Tabs[0], false))
	assert.Equal(t, len("Settings")+2+3, TabVisualWidth(Tabs[4], false))
}

func TestRenderTabBarFillsWidth(t *testing.T) {
	bar := RenderTabBar(2, 120, "asha@example.com")
	assert.Equal(t, 120, lipgloss.Width(bar))
	assert.Contains(t, ansi.Strip(bar), "asha@example.com")
}

func TestTabIdxByKey(t *testing.T) {
	assert.Equal(t, 0, TabIdxByKey('d'))
	assert.Equal(t, 2, TabIdxByKey('p'))
	assert.Equal(t, 4, TabIdxByKey('x'))
	assert.Equal(t, -1, TabIdxByKey('z'))
}

func TestButtonKinds(t *testing.T) {
	kinds := []ButtonKind{Primary, Outline, Ghost, Danger}
	for _, k := range kinds {
		out := ansi.Strip(Button("Save", k, false, ""))
		assert.Contains(t, out, "Save", k.String())
	}
	assert.Equal(t, 3, lipgloss.Height(Button("Save", Outline, false, "")))
	assert.Equal(t, 1, lipgloss.Height(Button("Save", Primary, false, "")))
	assert.Contains(t, ansi.Strip(Button("Save", Primary, true, "⣾")), "⣾ Save")
	assert.Equal(t, "unknown", ButtonKind(9).String())
}

func TestGroupBars(t *testing.T) {
	bars := GroupBars(
		[]string{"Utilities", "Housing", "Utilities", "Food"},
		[]float64{500, 12000, 700, 1200},
	)
	assert.Equal(t, []Bar{
		{Label: "Housing", Value: 12000},
		{Label: "Food", Value: 1200},
		{Label: "Utilities", Value: 1200},
	}, bars)
}

func TestBarChartScalesToPeak(t *testing.T) {
	out := ansi.Strip(BarChart([]Bar{
		{Label: "Rent", Value: 100},
		{Label: "Wifi", Value: 50},
	}, 29, "#FF0000", nil))

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, 2*strings.Count(lines[1], "█"), strings.Count(lines[0], "█"))
	for _, l := range lines {
		assert.Equal(t, 29, lipgloss.Width(l))
	}
}

func TestBudgetBar(t *testing.T) {
	out := ansi.Strip(BudgetBar("Week", 125, 6, 20))
	assert.True(t, strings.HasPrefix(out, "Week  "))
	assert.Contains(t, out, "125.0%")
	assert.Equal(t, ColorForPct(95), ColorForPct(150))
	assert.NotEqual(t, ColorForPct(10), ColorForPct(70))
}
