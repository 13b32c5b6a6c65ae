package cmd

import (
	"fmt"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/pipeline"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Actual versus projected sales per period",
	Long: "Projects each period as sales x 1.05 plus up to 10% random uplift.\n" +
		"Pass --seed for a reproducible projection.",
	RunE: runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	view, currency, err := computeView(cmd)
	if err != nil {
		return err
	}
	if len(view.Forecast) == 0 {
		fmt.Println("\n  No transactions match the selected filters.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  %s  (%s)", filterLabel(view.Criteria), view.Mode)))
	fmt.Println()

	rows := make([][]string, 0, len(view.Forecast)+2)
	actual, projected := view.Totals.Sales(currency), decimal.Zero
	for _, p := range view.Forecast {
		projected = projected.Add(p.ForecastSales(currency))
		rows = append(rows, []string{
			pipeline.PeriodLabel(p.Key, flagYear),
			cli.FormatMoney(currency, p.Sales(currency)),
			cli.FormatMoney(currency, p.ForecastSales(currency)),
			cli.FormatDelta(currency, p.ForecastSales(currency), p.Sales(currency)),
		})
	}
	rows = append(rows,
		[]string{cli.Separator},
		[]string{"Total", cli.FormatMoney(currency, actual), cli.FormatMoney(currency, projected),
			cli.FormatDelta(currency, projected, actual)},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Period", "Actual", "Forecast", "Uplift"},
		Rows:    rows,
	}))
	return nil
}
