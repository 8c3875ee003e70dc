// Package theme defines color themes for the pennypal dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name string

	Background   lipgloss.Color // app background
	Surface      lipgloss.Color // cards and panels
	SurfaceHover lipgloss.Color // selected rows, active tab
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // focused cards, modals

	TextDim     lipgloss.Color // hints
	TextMuted   lipgloss.Color // labels
	TextPrimary lipgloss.Color
	TextInverse lipgloss.Color // text on accent fills

	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	Positive lipgloss.Color // within budget, success
	Caution  lipgloss.Color // nearing budget, due soon
	Negative lipgloss.Color // over budget, overdue, failures
	Info     lipgloss.Color

	// Frame is the border drawn around cards and buttons.
	Frame lipgloss.Border
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	SurfaceHover: lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	TextInverse:  lipgloss.Color("#100F0F"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Positive:     lipgloss.Color("#879A39"),
	Caution:      lipgloss.Color("#DA702C"),
	Negative:     lipgloss.Color("#D14D41"),
	Info:         lipgloss.Color("#4385BE"),
	Frame:        lipgloss.RoundedBorder(),
}

// NeoBrutal is a high-contrast light theme with thick black frames and
// flat saturated fills.
var NeoBrutal = Theme{
	Name:         "neo-brutal",
	Background:   lipgloss.Color("#FFF4D6"),
	Surface:      lipgloss.Color("#FFFFFF"),
	SurfaceHover: lipgloss.Color("#FFE14D"),
	Border:       lipgloss.Color("#000000"),
	BorderAccent: lipgloss.Color("#000000"),
	TextDim:      lipgloss.Color("#6B6B6B"),
	TextMuted:    lipgloss.Color("#333333"),
	TextPrimary:  lipgloss.Color("#000000"),
	TextInverse:  lipgloss.Color("#000000"),
	Accent:       lipgloss.Color("#FF5CAA"),
	AccentBright: lipgloss.Color("#FFE14D"),
	Positive:     lipgloss.Color("#00A86B"),
	Caution:      lipgloss.Color("#FF8A00"),
	Negative:     lipgloss.Color("#E4002B"),
	Info:         lipgloss.Color("#3D5AFE"),
	Frame:        lipgloss.ThickBorder(),
}

// TokyoNight is a cool blue-violet dark theme.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	SurfaceHover: lipgloss.Color("#2F3549"),
	Border:       lipgloss.Color("#414868"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	TextInverse:  lipgloss.Color("#1A1B26"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FA"),
	Positive:     lipgloss.Color("#9ECE6A"),
	Caution:      lipgloss.Color("#FF9E64"),
	Negative:     lipgloss.Color("#F7768E"),
	Info:         lipgloss.Color("#7DCFFF"),
	Frame:        lipgloss.RoundedBorder(),
}

// Terminal uses ANSI colors so the dashboard follows the terminal palette.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	TextInverse:  lipgloss.Color("0"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Positive:     lipgloss.Color("2"),
	Caution:      lipgloss.Color("3"),
	Negative:     lipgloss.Color("1"),
	Info:         lipgloss.Color("4"),
	Frame:        lipgloss.NormalBorder(),
}

// All lists the selectable themes in display order.
var All = []Theme{FlexokiDark, NeoBrutal, TokyoNight, Terminal}

// ByName returns the theme with the given name, or false.
func ByName(name string) (Theme, bool) {
	for _, t := range All {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Names returns the theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// SetActive switches the active theme. Unknown names fall back to the
// default and report false.
func SetActive(name string) bool {
	t, ok := ByName(name)
	if !ok {
		Active = FlexokiDark
		return false
	}
	Active = t
	return true
}
