package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/tui/theme"
)

// Status is what the bottom bar reports.
type Status struct {
	State    model.PipelineState
	Mode     model.Mode
	Currency model.Currency
	DataAge  string
	Loading  bool
	Err      string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	stateStyle := lipgloss.NewStyle().Foreground(t.StateColor(s.State)).Background(t.Surface).Bold(true)

	left := base.Render(" ") +
		keyStyle.Render("[v]") + base.Render(string(s.Mode)+"  ") +
		keyStyle.Render("[c]") + base.Render(string(s.Currency)+"  ") +
		keyStyle.Render("[?]") + base.Render("help  ") +
		keyStyle.Render("[q]") + base.Render("uit")

	var right strings.Builder
	switch {
	case s.Loading:
		right.WriteString(base.Render("loading  "))
	case s.Err != "":
		right.WriteString(lipgloss.NewStyle().Foreground(t.Bad).Background(t.Surface).
			Render(truncate(s.Err, max(width/3, 10)) + "  "))
	}
	right.WriteString(stateStyle.Render(string(s.State)))
	if s.DataAge != "" {
		right.WriteString(base.Render("  " + s.DataAge))
	}
	right.WriteString(base.Render(" "))

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right.String()), 0)
	return left + base.Render(strings.Repeat(" ", padding)) + right.String()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
