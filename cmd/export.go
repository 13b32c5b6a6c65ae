package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/influx"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export dashboard buckets to external systems",
}

var exportInfluxCmd = &cobra.Command{
	Use:   "influx",
	Short: "Write one point per period to InfluxDB",
	RunE:  runExportInflux,
}

func init() {
	exportCmd.AddCommand(exportInfluxCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExportInflux(cmd *cobra.Command, _ []string) error {
	view, _, err := computeView(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	exp, err := influx.New(ctx, influx.Config{
		URL:    appCfg.Influx.URL,
		Token:  config.GetInfluxToken(appCfg),
		Org:    appCfg.Influx.Org,
		Bucket: appCfg.Influx.Bucket,
	})
	if err != nil {
		return err
	}
	defer exp.Close()

	n, err := exp.Export(ctx, view, flagYear)
	if err != nil {
		return err
	}
	fmt.Printf("  Wrote %d %s points to %s/%s\n", n, view.Mode, appCfg.Influx.Org, appCfg.Influx.Bucket)
	return nil
}
