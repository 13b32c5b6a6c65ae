package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/tui/components"
	"github.com/theirongolddev/salesdash/internal/tui/theme"
)

// renderAgenciesTab ranks agencies by sales in the selected currency.
func (a App) renderAgenciesTab(cw, h int) string {
	t := theme.Active
	c := a.currency

	if len(a.agencies) == 0 {
		return components.ContentCard("Agencies",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
				Render("No transactions match the current filters."), cw)
	}

	total := a.view.Totals.Sales(c)
	innerW := components.CardInnerWidth(cw)

	labelW := 10
	for _, ag := range a.agencies {
		labelW = max(labelW, len([]rune(ag.Agency)))
	}
	labelW = min(labelW, innerW/3)

	valueW := 0
	values := make([]string, len(a.agencies))
	for i, ag := range a.agencies {
		values[i] = moneyOf(c, ag.Measures)
		valueW = max(valueW, len(values[i]))
	}
	// label, space, bar, space, "100.0%", two spaces, value
	barW := max(innerW-labelW-1-1-6-2-valueW, 10)

	// card chrome (2) + title (1) + "more" line (1)
	visible := max(h-4, 1)
	start := min(a.scroll, max(len(a.agencies)-visible, 0))
	end := min(start+visible, len(a.agencies))

	var body string
	for i := start; i < end; i++ {
		ag := a.agencies[i]
		pct := 0.0
		if total.IsPositive() {
			pct = ag.Sales(c).Div(total).InexactFloat64()
		}
		if i > start {
			body += "\n"
		}
		body += components.ShareBar(truncStr(ag.Agency, labelW), values[i], pct, labelW, barW)
	}
	if rest := len(a.agencies) - end; rest > 0 {
		body += "\n" + lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
			Render(fmt.Sprintf("+%d more (j/k to scroll)", rest))
	}

	title := fmt.Sprintf("Agencies by %s sales (%s)", c, cli.FormatNumber(int64(len(a.agencies))))
	return components.ContentCard(title, body, cw)
}
