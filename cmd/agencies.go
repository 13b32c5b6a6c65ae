package cmd

import (
	"fmt"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var agenciesCmd = &cobra.Command{
	Use:   "agencies",
	Short: "Agency sales ranking",
	RunE:  runAgencies,
}

func init() {
	rootCmd.AddCommand(agenciesCmd)
}

func runAgencies(cmd *cobra.Command, _ []string) error {
	view, currency, err := computeView(cmd)
	if err != nil {
		return err
	}
	agencies := pipeline.AggregateAgencies(view.Transactions, currency)
	if len(agencies) == 0 {
		fmt.Println("\n  No transactions match the selected filters.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("AGENCIES  %s  (%s)", filterLabel(view.Criteria), currency)))
	fmt.Println()

	rows := make([][]string, 0, len(agencies))
	for _, a := range agencies {
		rows = append(rows, []string{
			truncate(a.Agency, 28),
			cli.FormatNumber(int64(a.Records)),
			cli.FormatPax(a.Pax(currency)),
			cli.FormatMoney(currency, a.Sales(currency)),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Agency", "Rows", "Pax", "Sales"},
		Rows:    rows,
	}))

	top := agencies[:min(len(agencies), 10)]
	peak := top[0].Sales(currency).InexactFloat64()
	labelWidth := 0
	for _, a := range top {
		labelWidth = max(labelWidth, len([]rune(truncate(a.Agency, 20))))
	}
	fmt.Println()
	for _, a := range top {
		fmt.Println(cli.RenderHorizontalBar(truncate(a.Agency, 20), labelWidth, a.Sales(currency).InexactFloat64(), peak, 40))
	}
	return nil
}
