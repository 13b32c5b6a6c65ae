// Package cmd implements the salesdash CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Cache: %s\n", pipeline.CachePath())
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Source:         %s\n", orUnset(cfg.General.Source))
	fmt.Printf("    Reference year: %d\n", cfg.General.ReferenceYear)
	fmt.Printf("    Default mode:   %s\n", cfg.General.DefaultMode)
	fmt.Printf("    Currency:       %s\n", cfg.General.Currency)
	fmt.Printf("    User:           %s\n", orUnset(cfg.General.User))
	fmt.Println()

	fmt.Println("  [Storage]")
	fmt.Printf("    Upload bucket:    %s\n", orUnset(cfg.Storage.UploadBucket))
	fmt.Printf("    Upload prefix:    %s\n", orUnset(cfg.Storage.UploadPrefix))
	fmt.Printf("    Processed bucket: %s\n", orUnset(cfg.Storage.ProcessedBucket))
	fmt.Printf("    Output dir:       %s\n", cfg.OutputDir())
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Poll schedule: %s\n", cfg.Server.PollSchedule)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Influx]")
	fmt.Printf("    URL:    %s\n", orUnset(cfg.Influx.URL))
	fmt.Printf("    Org:    %s\n", orUnset(cfg.Influx.Org))
	fmt.Printf("    Bucket: %s\n", orUnset(cfg.Influx.Bucket))
	if tok := config.GetInfluxToken(cfg); tok != "" {
		fmt.Printf("    Token:  %s\n", maskSecret(tok))
	} else {
		fmt.Println("    Token:  not configured")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `salesdash setup` to reconfigure.")
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
