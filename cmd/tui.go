package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/storage"
	"github.com/theirongolddev/salesdash/internal/tui"
	"github.com/theirongolddev/salesdash/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	criteria, mode, currency, err := viewOptions()
	if err != nil {
		return err
	}

	theme.SetActive(appCfg.Appearance.Theme)

	// Force TrueColor so every background style emits ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	cache := openStore()
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}
	fetcher := storage.NewFetcher(60 * time.Second)
	defer func() { _ = fetcher.Close() }()

	opts := tui.Options{
		Source:   flagSource,
		Config:   appCfg,
		Criteria: criteria,
		Mode:     mode,
		Currency: currency,
		Loader:   newLoader(fetcher, cache),
		FirstRun: !config.Exists(),
	}
	if cache != nil {
		opts.Jobs = cache
	}
	if cmd.Flags().Changed("seed") {
		seed := flagSeed
		opts.Seed = &seed
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
