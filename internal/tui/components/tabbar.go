package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salesdash/internal/tui/theme"
)

// Tab is one dashboard page.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Table", Key: 't', KeyPos: 0},
	{Name: "Agencies", Key: 'g', KeyPos: 1},
}

// renderTab renders one tab label, highlighting its shortcut when inactive.
func renderTab(tab Tab, active bool) string {
	t := theme.Active

	if active {
		return lipgloss.NewStyle().
			Foreground(t.AccentBright).
			Background(t.SurfaceHover).
			Bold(true).
			Padding(0, 1).
			Render(tab.Name)
	}

	inactive := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	pad := inactive.Render(" ")

	if tab.KeyPos < 0 || tab.KeyPos >= len(tab.Name) {
		return pad + inactive.Render(tab.Name) + key.Render("["+string(tab.Key)+"]") + pad
	}
	return pad +
		inactive.Render(tab.Name[:tab.KeyPos]) +
		key.Render(tab.Name[tab.KeyPos:tab.KeyPos+1]) +
		inactive.Render(tab.Name[tab.KeyPos+1:]) +
		pad
}

// TabVisualWidth returns the rendered width of a tab, used for mouse hit testing.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders the tab bar with the given active index and a
// right-aligned filter summary.
func RenderTabBar(activeIdx, width int, filters string) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}
	left := strings.Join(parts, sep)

	right := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(filters + " ")
	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", padding)) + right
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
