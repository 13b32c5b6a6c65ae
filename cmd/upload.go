package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/ingest"
	"github.com/theirongolddev/salesdash/internal/logger"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/storage"
	"github.com/theirongolddev/salesdash/internal/store"
	"github.com/theirongolddev/salesdash/internal/workbook"

	"github.com/spf13/cobra"
)

var flagUploadUser string

var uploadCmd = &cobra.Command{
	Use:   "upload <report.xlsx>",
	Short: "Upload a daily report workbook and publish its normalized CSV",
	Long: "Archives the workbook to storage.upload_bucket when set, records a processed file,\n" +
		"normalizes it and writes the CSV to storage.processed_bucket or the local output directory.",
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&flagUploadUser, "user", "", "Uploader name recorded with the processed file")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := workbook.Accept(filepath.Base(path)); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	log := logger.New()
	ctx := logger.WithContext(cmd.Context(), log)

	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = cache.Close() }()

	user := flagUploadUser
	if user == "" {
		user = appCfg.General.User
	}

	p := &ingest.Processor{
		Jobs:       cache,
		Normalizer: workbook.Normalizer{Year: flagYear},
		Life:       pipeline.NewLifecycle(),
		User:       user,
		Sink:       storage.DirSink{Dir: appCfg.OutputDir()},
	}

	sc := appCfg.Storage
	if sc.UploadBucket != "" || sc.ProcessedBucket != "" {
		up, err := storage.NewUploader(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = up.Close() }()

		if sc.UploadBucket != "" {
			p.Raw, p.RawBucket, p.RawPrefix = up, sc.UploadBucket, sc.UploadPrefix
		}
		if sc.ProcessedBucket != "" {
			p.Sink = storage.BucketSink{Uploader: up, Bucket: sc.ProcessedBucket, Prefix: "processed"}
		}
	}

	out, err := p.Process(ctx, path, data)
	if err != nil {
		if errors.Is(err, workbook.ErrNoSheets) {
			fmt.Fprintln(os.Stderr, cli.RenderWarning("no DD-Mon sheets found; is this a daily report?"))
		}
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderKV([][2]string{
		{"Processed file", out.Job.ID},
		{"State", string(p.Life.State())},
		{"Rows", cli.FormatNumber(int64(out.Result.Rows))},
		{"Output", out.Job.OutputPath},
	}))
	if out.RawURI != "" {
		fmt.Print(cli.RenderKV([][2]string{{"Archived", out.RawURI}}))
	}
	return nil
}
