package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/tui/components"
	"github.com/theirongolddev/salesdash/internal/tui/theme"
)

// tableColumn is one fixed-width column; the first column absorbs any
// spare width.
type tableColumn struct {
	title string
	width int
	right bool
}

// renderTableTab shows individual transactions in daily mode and one row
// per period otherwise.
func (a App) renderTableTab(cw, h int) string {
	if a.mode == model.Daily {
		return a.renderTransactions(cw, h)
	}
	return a.renderPeriods(cw, h)
}

func (a App) renderTransactions(cw, h int) string {
	c := a.currency
	txs := a.view.Transactions

	cols := []tableColumn{
		{title: "Agency"},
		{title: "Date", width: 8},
		{title: "Pax", width: 8, right: true},
		{title: "Sales", width: 18, right: true},
	}
	rows := make([][]string, len(txs))
	for i, r := range txs {
		date := r.Date
		if r.DateValid {
			date = r.Day.Format("02-Jan")
		}
		rows[i] = []string{r.Agency, date, cli.FormatPax(r.Pax(c)), cli.FormatMoney(c, r.Sales(c))}
	}

	title := fmt.Sprintf("Transactions (%s)", cli.FormatNumber(int64(len(txs))))
	return a.renderScrollTable(title, cols, rows, nil, cw, h)
}

func (a App) renderPeriods(cw, h int) string {
	c := a.currency
	v := a.view
	year := a.cfg.General.ReferenceYear

	cols := []tableColumn{
		{title: "Period"},
		{title: "Rows", width: 6, right: true},
		{title: "Pax", width: 8, right: true},
		{title: "Sales", width: 18, right: true},
		{title: "Forecast", width: 18, right: true},
		{title: "Change", width: 18, right: true},
	}

	rows := make([][]string, len(v.Forecast))
	prev := decimal.Zero
	for i, p := range v.Forecast {
		change := ""
		if i > 0 {
			change = cli.FormatDelta(c, p.Sales(c), prev)
		}
		prev = p.Sales(c)
		rows[i] = []string{
			pipeline.PeriodLabel(p.Key, year),
			cli.FormatNumber(int64(p.Records)),
			cli.FormatPax(p.Pax(c)),
			cli.FormatMoney(c, p.Sales(c)),
			cli.FormatMoney(c, p.ForecastSales(c)),
			change,
		}
	}
	total := []string{
		"Total",
		cli.FormatNumber(int64(v.Totals.Records)),
		cli.FormatPax(v.Totals.Pax(c)),
		moneyOf(c, v.Totals.Measures),
		"",
		"",
	}

	title := fmt.Sprintf("Sales by %s", strings.ToLower(periodNoun(v.Mode)))
	return a.renderScrollTable(title, cols, rows, total, cw, h)
}

// renderScrollTable draws a header, the visible window of rows starting at
// the scroll offset and an optional footer row.
func (a App) renderScrollTable(title string, cols []tableColumn, rows [][]string, footer []string, cw, h int) string {
	t := theme.Active

	innerW := components.CardInnerWidth(cw)
	fixed := 0
	for _, col := range cols[1:] {
		fixed += col.width + 2
	}
	cols[0].width = max(innerW-fixed, 10)

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	totalStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)

	line := func(cells []string, style lipgloss.Style) string {
		var b strings.Builder
		for i, col := range cols {
			if i > 0 {
				b.WriteString(style.Render("  "))
			}
			cell := truncStr(cells[i], col.width)
			if col.right {
				b.WriteString(style.Render(fmt.Sprintf("%*s", col.width, cell)))
			} else {
				b.WriteString(style.Render(fmt.Sprintf("%-*s", col.width, cell)))
			}
		}
		return b.String()
	}

	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.title
	}

	// card chrome (2) + title (1) + header (1) + rule (1) + footer (2)
	visible := max(h-7, 1)
	start := min(a.scroll, max(len(rows)-visible, 0))
	end := min(start+visible, len(rows))

	var b strings.Builder
	b.WriteString(line(headers, headStyle))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", innerW)))
	for _, r := range rows[start:end] {
		b.WriteString("\n")
		b.WriteString(line(r, rowStyle))
	}
	if len(rows) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("No transactions match the current filters."))
	}
	if footer != nil {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(strings.Repeat("─", innerW)))
		b.WriteString("\n")
		b.WriteString(line(footer, totalStyle))
	}

	if len(rows) > visible {
		title += fmt.Sprintf("  %d-%d of %d", start+1, end, len(rows))
	}
	return components.ContentCard(title, b.String(), cw)
}
