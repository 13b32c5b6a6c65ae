package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/workbook"

	"github.com/spf13/cobra"
)

var flagNormalizeOut string

var normalizeCmd = &cobra.Command{
	Use:   "normalize <report.xlsx>",
	Short: "Convert a daily report workbook to the dashboard CSV",
	Long:  "Reads every DD-Mon sheet of the workbook and writes one CSV. Use -o - to write to stdout.",
	Args:  cobra.ExactArgs(1),
	RunE:  runNormalize,
}

func init() {
	normalizeCmd.Flags().StringVarP(&flagNormalizeOut, "out", "o", ".", "Output directory, or - for stdout")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(_ *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	res, err := workbook.Normalizer{Year: flagYear}.Normalize(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	if flagNormalizeOut == "-" {
		_, err := os.Stdout.Write(res.CSV)
		return err
	}

	if err := os.MkdirAll(flagNormalizeOut, 0o750); err != nil {
		return err
	}
	out := filepath.Join(flagNormalizeOut, res.Name)
	if err := os.WriteFile(out, res.CSV, 0o640); err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  %d sheets, %s rows (%d dropped)\n",
			len(res.Sheets), cli.FormatNumber(int64(res.Rows)), res.Dropped)
		if len(res.Skipped) > 0 {
			fmt.Fprintln(os.Stderr, cli.RenderWarning("skipped sheets: "+strings.Join(res.Skipped, ", ")))
		}
		if res.BadNumbers > 0 {
			fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("%d unparseable amounts written as 0", res.BadNumbers)))
		}
	}
	fmt.Println(out)
	return nil
}
