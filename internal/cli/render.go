package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette for plain CLI output (Flexoki Dark).
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorTextMuted)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorTextDim)
	okStyle     = lipgloss.NewStyle().Foreground(ColorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorOrange)
	errStyle    = lipgloss.NewStyle().Foreground(ColorRed)
)

// Table is a bordered text table. The first column is left-aligned and
// the rest right-aligned unless LeftAlign marks them.
type Table struct {
	Title     string
	Headers   []string
	Rows      [][]string
	LeftAlign map[int]bool
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleStyle.Render(title))
}

// RenderTable renders t. A row holding the single cell "---" draws a separator.
func RenderTable(t Table) string {
	cols := len(t.Headers)
	if cols == 0 && len(t.Rows) > 0 {
		cols = len(t.Rows[0])
	}
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Headers)
	for _, r := range t.Rows {
		if !isSeparator(r) {
			measure(r)
		}
	}

	rule := func(left, mid, right string) string {
		segs := make([]string, cols)
		for i, w := range widths {
			segs[i] = strings.Repeat("─", w+2)
		}
		return dimStyle.Render(left+strings.Join(segs, mid)+right) + "\n"
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮"))

	if len(t.Headers) > 0 {
		b.WriteString(t.renderRow(t.Headers, widths, headerStyle, true))
		b.WriteString(rule("├", "┼", "┤"))
	}
	for _, r := range t.Rows {
		if isSeparator(r) {
			b.WriteString(rule("├", "┼", "┤"))
			continue
		}
		b.WriteString(t.renderRow(r, widths, valueStyle, false))
	}
	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

func (t Table) renderRow(row []string, widths []int, style lipgloss.Style, header bool) string {
	sep := dimStyle.Render("│")
	var b strings.Builder
	b.WriteString(sep)
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := strings.Repeat(" ", w-lipgloss.Width(cell))
		if header || i == 0 || t.LeftAlign[i] {
			cell = " " + cell + pad + " "
		} else {
			cell = " " + pad + cell + " "
		}
		b.WriteString(style.Render(cell))
		b.WriteString(sep)
	}
	b.WriteString("\n")
	return b.String()
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == "---"
}

// RenderKV renders aligned "label  value" lines.
func RenderKV(pairs [][2]string) string {
	w := 0
	for _, p := range pairs {
		if l := lipgloss.Width(p[0]); l > w {
			w = l
		}
	}
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "  %s  %s\n", mutedStyle.Render(p[0]+strings.Repeat(" ", w-lipgloss.Width(p[0]))), valueStyle.Render(p[1]))
	}
	return b.String()
}

// RenderBudgetBar renders a text bar for a 0-100 usage percentage,
// green under 60, orange under 90, red beyond.
func RenderBudgetBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	clamped := pct
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 100 {
		clamped = 100
	}
	filled := int(clamped / 100 * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := okStyle
	switch {
	case pct >= 90:
		style = errStyle
	case pct >= 60:
		style = warnStyle
	}
	return fmt.Sprintf("[%s] %s", style.Render(bar), FormatPercent(pct))
}

// OK, Warn and Error color a one-line status message.
func OK(msg string) string    { return okStyle.Render(msg) }
func Warn(msg string) string  { return warnStyle.Render(msg) }
func Error(msg string) string { return errStyle.Render(msg) }
func Muted(msg string) string { return mutedStyle.Render(msg) }
