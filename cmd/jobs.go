package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/storage"
	"github.com/theirongolddev/salesdash/internal/store"

	"github.com/spf13/cobra"
)

var flagJobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List processed files and their status",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().IntVarP(&flagJobsLimit, "limit", "l", 20, "Maximum rows to show")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(_ *cobra.Command, _ []string) error {
	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = cache.Close() }()

	jobs, err := cache.ListJobs(flagJobsLimit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("\n  No processed files yet. Run `salesdash upload <report.xlsx>`.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PROCESSED FILES"))
	fmt.Println()

	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		detail := storage.FileName(j.OutputPath)
		if j.Error != "" {
			detail = truncate(j.Error, 40)
		}
		rows = append(rows, []string{
			j.ID[:8],
			truncate(j.OriginalFile, 28),
			j.Status,
			j.UpdatedAt.Local().Format(time.DateTime),
			detail,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "File", "Status", "Updated", "Output / Error"},
		Rows:    rows,
	}))
	return nil
}
