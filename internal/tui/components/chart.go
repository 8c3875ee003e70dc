package components

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pennypal/pennypal/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Bar is one row of a BarChart.
type Bar struct {
	Label string
	Value float64
}

// GroupBars sums values per label and returns bars sorted by value,
// largest first. Ties sort by label.
func GroupBars(labels []string, values []float64) []Bar {
	idx := make(map[string]int)
	var bars []Bar
	for i, l := range labels {
		if i >= len(values) {
			break
		}
		if j, ok := idx[l]; ok {
			bars[j].Value += values[i]
			continue
		}
		idx[l] = len(bars)
		bars = append(bars, Bar{Label: l, Value: values[i]})
	}
	sort.SliceStable(bars, func(i, j int) bool {
		if bars[i].Value != bars[j].Value {
			return bars[i].Value > bars[j].Value
		}
		return bars[i].Label < bars[j].Label
	})
	return bars
}

// BarChart renders horizontal bars scaled to the largest value, with
// eighth-block precision on the bar tips. format renders the value label.
func BarChart(bars []Bar, width int, color lipgloss.Color, format func(float64) string) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.0f", v) }
	}

	labelW, valueW := 0, 0
	peak := 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		valueW = max(valueW, lipgloss.Width(format(b.Value)))
		peak = math.Max(peak, b.Value)
	}
	if peak <= 0 {
		peak = 1
	}

	barW := width - labelW - valueW - 2
	if barW < 4 {
		barW = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	partials := []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉'}

	lines := make([]string, len(bars))
	for i, b := range bars {
		v := math.Max(b.Value, 0)
		eighths := int(math.Round(v / peak * float64(barW*8)))
		full := eighths / 8
		rem := eighths % 8

		bar := strings.Repeat("█", full)
		if rem > 0 && full < barW {
			bar += string(partials[rem])
		}
		pad := barW - lipgloss.Width(bar)

		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s", labelW, b.Label)) +
			space.Render(" ") +
			barStyle.Render(bar) +
			space.Render(strings.Repeat(" ", pad+1)) +
			valueStyle.Render(fmt.Sprintf("%*s", valueW, format(b.Value)))
	}
	return strings.Join(lines, "\n")
}
