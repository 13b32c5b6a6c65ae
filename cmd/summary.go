package cmd

import (
	"fmt"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals and per-period sales summary",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	view, currency, err := computeView(cmd)
	if err != nil {
		return err
	}

	if view.Totals.Records == 0 {
		fmt.Println("\n  No transactions match the selected filters.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SALES  %s  (%s)", filterLabel(view.Criteria), view.Mode)))
	fmt.Println()

	t := view.Totals
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Sales (USD)", cli.FormatMoney(model.CurrencyUSD, t.SalesUSD)},
			{"Total Sales (NPR)", cli.FormatMoney(model.CurrencyNPR, t.SalesNPR)},
			{cli.Separator},
			{"Total Pax (USD)", cli.FormatPax(t.PaxUSD)},
			{"Total Pax (NPR)", cli.FormatPax(t.PaxNPR)},
			{"Combined Pax", cli.FormatPax(t.PaxUSD.Add(t.PaxNPR))},
			{cli.Separator},
			{"Agencies", cli.FormatNumber(int64(t.AgenciesCount))},
			{"Transactions", cli.FormatNumber(int64(t.Records))},
		},
	}))
	fmt.Println()

	rows := make([][]string, 0, len(view.Buckets))
	trend := make([]float64, 0, len(view.Buckets))
	for i, b := range view.Buckets {
		delta := ""
		if i > 0 {
			delta = cli.FormatDelta(currency, b.Sales(currency), view.Buckets[i-1].Sales(currency))
		}
		rows = append(rows, []string{
			pipeline.PeriodLabel(b.Key, flagYear),
			cli.FormatPax(b.Pax(currency)),
			cli.FormatMoney(currency, b.Sales(currency)),
			delta,
			cli.FormatNumber(int64(b.Records)),
		})
		trend = append(trend, b.Sales(currency).InexactFloat64())
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("By %s period (%s)", view.Mode, currency),
		Headers: []string{"Period", "Pax", "Sales", "Change", "Rows"},
		Rows:    rows,
	}))

	if len(trend) > 1 {
		fmt.Printf("\n  Trend  %s\n", cli.RenderSparkline(trend))
	}
	return nil
}
