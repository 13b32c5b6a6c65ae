package cmd

import (
	"fmt"

	"github.com/theirongolddev/salesdash/internal/cli"

	"github.com/spf13/cobra"
)

var flagTxLimit int

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "List the filtered transactions",
	RunE:    runTransactions,
}

func init() {
	transactionsCmd.Flags().IntVarP(&flagTxLimit, "limit", "l", 50, "Maximum rows to show (0 for all)")
	rootCmd.AddCommand(transactionsCmd)
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	view, _, err := computeView(cmd)
	if err != nil {
		return err
	}
	txs := view.Transactions
	if len(txs) == 0 {
		fmt.Println("\n  No transactions match the selected filters.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TRANSACTIONS  %s", filterLabel(view.Criteria))))
	fmt.Println()

	shown := txs
	if flagTxLimit > 0 && len(shown) > flagTxLimit {
		shown = shown[:flagTxLimit]
	}

	rows := make([][]string, 0, len(shown))
	for _, r := range shown {
		date := r.Date
		if !r.DateValid {
			date += " (?)"
		}
		rows = append(rows, []string{
			date,
			truncate(r.Agency, 28),
			cli.FormatPax(r.PaxUSD),
			cli.FormatAmount(r.SalesUSD),
			cli.FormatPax(r.PaxNPR),
			cli.FormatAmount(r.SalesNPR),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Agency", "Pax USD", "Sales USD", "Pax NPR", "Sales NPR"},
		Rows:    rows,
	}))
	if len(shown) < len(txs) {
		fmt.Printf("\n  Showing %d of %s rows (use --limit 0 for all)\n", len(shown), cli.FormatNumber(int64(len(txs))))
	}
	return nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
