// Package theme defines color themes for the salesdash TUI.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salesdash/internal/model"
)

// Theme maps UI and data roles to colors.
type Theme struct {
	Name string

	Background   lipgloss.Color // app background
	Surface      lipgloss.Color // card and bar backgrounds
	SurfaceHover lipgloss.Color // selected row, active tab
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // focused card, overlays

	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextPrimary lipgloss.Color

	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	Sales    lipgloss.Color // actual sales bars and values
	Forecast lipgloss.Color // projected sales
	Pax      lipgloss.Color // passenger counts

	Good lipgloss.Color // ready, positive deltas
	Warn lipgloss.Color // processing, uploading
	Bad  lipgloss.Color // error, negative deltas
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme, a warm paper-inspired dark palette.
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
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Sales:        lipgloss.Color("#879A39"),
	Forecast:     lipgloss.Color("#CE5D97"),
	Pax:          lipgloss.Color("#4385BE"),
	Good:         lipgloss.Color("#A3B859"),
	Warn:         lipgloss.Color("#D0A215"),
	Bad:          lipgloss.Color("#D14D41"),
}

// CatppuccinMocha is a soft pastel palette.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Background:   lipgloss.Color("#1E1E2E"),
	Surface:      lipgloss.Color("#313244"),
	SurfaceHover: lipgloss.Color("#45475A"),
	Border:       lipgloss.Color("#585B70"),
	BorderAccent: lipgloss.Color("#89B4FA"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextMuted:    lipgloss.Color("#A6ADC8"),
	TextPrimary:  lipgloss.Color("#CDD6F4"),
	Accent:       lipgloss.Color("#89B4FA"),
	AccentBright: lipgloss.Color("#B4D0FB"),
	Sales:        lipgloss.Color("#A6E3A1"),
	Forecast:     lipgloss.Color("#F5C2E7"),
	Pax:          lipgloss.Color("#94E2D5"),
	Good:         lipgloss.Color("#A6E3A1"),
	Warn:         lipgloss.Color("#F9E2AF"),
	Bad:          lipgloss.Color("#F38BA8"),
}

// TokyoNight is a cool blue and purple palette.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	SurfaceHover: lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	Sales:        lipgloss.Color("#9ECE6A"),
	Forecast:     lipgloss.Color("#BB9AF7"),
	Pax:          lipgloss.Color("#7DCFFF"),
	Good:         lipgloss.Color("#B9E87A"),
	Warn:         lipgloss.Color("#E0AF68"),
	Bad:          lipgloss.Color("#F7768E"),
}

// Terminal uses the ANSI 16 colors only.
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
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Sales:        lipgloss.Color("2"),
	Forecast:     lipgloss.Color("5"),
	Pax:          lipgloss.Color("4"),
	Good:         lipgloss.Color("10"),
	Warn:         lipgloss.Color("3"),
	Bad:          lipgloss.Color("1"),
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// Names lists the theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// StateColor returns the color used to show a pipeline state.
func (t Theme) StateColor(s model.PipelineState) lipgloss.Color {
	switch s {
	case model.StateReady:
		return t.Good
	case model.StateUploading, model.StateProcessing:
		return t.Warn
	case model.StateError:
		return t.Bad
	default:
		return t.TextMuted
	}
}
