package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/tui/components"
	"github.com/theirongolddev/salesdash/internal/tui/theme"
)

func (a App) renderOverviewTab(cw, h int) string {
	t := theme.Active
	v := a.view
	c := a.currency

	forecastTotal := decimal.Zero
	for _, p := range v.Forecast {
		forecastTotal = forecastTotal.Add(p.ForecastSales(c))
	}

	// Row 1: headline metrics
	metrics := []components.Metric{
		{
			Label: "Sales (" + string(c) + ")",
			Value: moneyOf(c, v.Totals.Measures),
			Delta: "forecast " + cli.FormatMoney(c, forecastTotal),
			Color: t.Sales,
		},
		{
			Label: "Pax (" + string(c) + ")",
			Value: cli.FormatPax(v.Totals.Pax(c)),
			Delta: fmt.Sprintf("%d periods", len(v.Buckets)),
			Color: t.Pax,
		},
		{
			Label: "Combined Pax",
			Value: cli.FormatPax(v.Totals.PaxUSD.Add(v.Totals.PaxNPR)),
			Delta: "USD " + cli.FormatPax(v.Totals.PaxUSD) + " + NPR " + cli.FormatPax(v.Totals.PaxNPR),
		},
		{
			Label: "Agencies",
			Value: cli.FormatNumber(int64(v.Totals.AgenciesCount)),
			Delta: cli.FormatNumber(int64(v.Totals.Records)) + " transactions",
		},
	}
	row := components.MetricCardRow(metrics, cw)

	if len(v.Buckets) == 0 {
		empty := components.ContentCard("No data",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
				Render("No transactions match the current filters."), cw)
		return row + "\n" + empty
	}

	// Row 2: charts fill the remaining height
	labels := make([]string, len(v.Buckets))
	pax := make([]float64, len(v.Buckets))
	sales := make([]float64, len(v.Forecast))
	projected := make([]float64, len(v.Forecast))
	for i, b := range v.Buckets {
		labels[i] = b.Label
		pax[i] = b.Pax(c).InexactFloat64()
	}
	for i, p := range v.Forecast {
		sales[i] = p.Sales(c).InexactFloat64()
		projected[i] = p.ForecastSales(c).InexactFloat64()
	}

	period := periodNoun(v.Mode)
	paxTitle := "Pax by " + period
	salesTitle := "Sales vs Forecast by " + period

	// card chrome: border (2) + title (1) + x labels (1) + legend (1)
	remaining := h - lipgloss.Height(row)
	if a.isCompactLayout() {
		chartH := max((remaining-4)/2-3, 3)
		inner := components.CardInnerWidth(cw)
		paxChart := components.BarChart([]components.Series{{Name: "Pax", Values: pax, Color: t.Pax}}, labels, inner, chartH)
		salesChart := components.BarChart([]components.Series{
			{Name: "Sales", Values: sales, Color: t.Sales},
			{Name: "Forecast", Values: projected, Color: t.Forecast},
		}, labels, inner, chartH)
		return strings.Join([]string{
			row,
			components.ContentCard(salesTitle, salesChart, cw),
			components.ContentCard(paxTitle, paxChart, cw),
		}, "\n")
	}

	widths := components.LayoutRow(cw, 2)
	chartH := max(remaining-5, 3)
	salesChart := components.BarChart([]components.Series{
		{Name: "Sales", Values: sales, Color: t.Sales},
		{Name: "Forecast", Values: projected, Color: t.Forecast},
	}, labels, components.CardInnerWidth(widths[0]), chartH)
	paxChart := components.BarChart([]components.Series{{Name: "Pax", Values: pax, Color: t.Pax}},
		labels, components.CardInnerWidth(widths[1]), chartH)

	charts := components.CardRow([]string{
		components.ContentCard(salesTitle, salesChart, widths[0]),
		components.ContentCard(paxTitle, paxChart, widths[1]),
	})
	return row + "\n" + charts
}

func periodNoun(m model.Mode) string {
	switch m {
	case model.Weekly:
		return "Week"
	case model.Daily:
		return "Day"
	default:
		return "Month"
	}
}
