package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"
	"github.com/theirongolddev/salesdash/internal/storage"
	"github.com/theirongolddev/salesdash/internal/store"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagSource   string
	flagMonth    string
	flagAgencies []string
	flagMode     string
	flagCurrency string
	flagYear     int
	flagSeed     uint64
	flagNoCache  bool
	flagQuiet    bool
)

// appCfg is populated by the root PersistentPreRunE before any command runs.
var appCfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "salesdash",
	Short: "Agency sales dashboard",
	Long:  "Aggregate daily agency sales reports into monthly, weekly and daily views with a naive forecast.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadEnv(); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		appCfg = cfg
		if !cmd.Flags().Changed("year") {
			flagYear = cfg.General.ReferenceYear
		}
		if !cmd.Flags().Changed("mode") && cfg.General.DefaultMode != "" {
			flagMode = cfg.General.DefaultMode
		}
		if !cmd.Flags().Changed("currency") && cfg.General.Currency != "" {
			flagCurrency = cfg.General.Currency
		}
		return nil
	},
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Amounts render as JSON numbers in every machine-readable output.
	decimal.MarshalJSONWithoutQuotes = true

	rootCmd.PersistentFlags().StringVarP(&flagSource, "source", "s", "", "CSV location: path, http(s) URL or gs://bucket/object")
	rootCmd.PersistentFlags().StringVarP(&flagMonth, "month", "m", model.All, "Filter to month (Jan..Dec or All)")
	rootCmd.PersistentFlags().StringSliceVarP(&flagAgencies, "agency", "a", nil, "Filter to agency (repeatable, exact match)")
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", string(model.Monthly), "Bucketing mode: monthly, weekly or daily")
	rootCmd.PersistentFlags().StringVar(&flagCurrency, "currency", string(model.CurrencyUSD), "Display currency: USD or NPR")
	rootCmd.PersistentFlags().IntVar(&flagYear, "year", source.DefaultYear, "Reference year for DD-Mon dates")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "Seed the forecast generator for reproducible output")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// openStore opens the shared SQLite store. A nil cache means it is
// unavailable; callers degrade to uncached behavior.
func openStore() *store.Cache {
	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Cache unavailable (%v)\n", err)
		}
		return nil
	}
	return cache
}

// newLoader wires the fetcher, normalizer and optional cache.
func newLoader(fetcher *storage.Fetcher, cache *store.Cache) *pipeline.Loader {
	l := &pipeline.Loader{
		Fetcher:    fetcher,
		Normalizer: source.Normalizer{Year: flagYear},
	}
	if cache != nil && !flagNoCache {
		l.Cache = cache
	}
	return l
}

// loadData is the shared data loading path used by all report commands.
func loadData(ctx context.Context) (*pipeline.LoadResult, error) {
	cache := openStore()
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	var jobs pipeline.LatestJobFinder
	if cache != nil {
		jobs = cache
	}
	location, err := pipeline.ResolveLocation(flagSource, appCfg.General.Source, jobs, appCfg.OutputDir())
	if err != nil {
		return nil, err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loading %s...\n", location)
	}

	fetcher := storage.NewFetcher(30 * time.Second)
	defer func() { _ = fetcher.Close() }()

	result, err := newLoader(fetcher, cache).Load(ctx, location)
	if err != nil {
		return nil, err
	}

	if !flagQuiet {
		origin := "parsed"
		if result.FromCache {
			origin = "loaded from cache"
		}
		fmt.Fprintf(os.Stderr, "  %s records %s\n", cli.FormatNumber(int64(len(result.Records))), origin)
		printStatsWarnings(result.Stats)
	}
	return result, nil
}

func printStatsWarnings(st source.ParseStats) {
	if len(st.Missing) > 0 {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("missing columns filled with zero: %v", st.Missing)))
	}
	if st.ShortRows > 0 {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("%d short rows padded", st.ShortRows)))
	}
	if st.BadNumbers > 0 {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("%d unparseable amounts treated as zero", st.BadNumbers)))
	}
	if st.BadDates > 0 {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("%d invalid dates placed on 1 Jan", st.BadDates)))
	}
}

// viewOptions resolves the shared filter, mode and currency flags.
func viewOptions() (model.FilterCriteria, model.Mode, model.Currency, error) {
	mode, err := model.ParseMode(flagMode)
	if err != nil {
		return model.FilterCriteria{}, "", "", err
	}
	criteria := model.NewFilterCriteria(flagMonth, flagAgencies)
	if err := criteria.Validate(); err != nil {
		return model.FilterCriteria{}, "", "", err
	}
	return criteria, mode, model.ParseCurrency(flagCurrency), nil
}

// computeView loads the data set and runs the dashboard pipeline with the
// shared flags applied.
func computeView(cmd *cobra.Command) (model.DashboardView, model.Currency, error) {
	criteria, mode, currency, err := viewOptions()
	if err != nil {
		return model.DashboardView{}, "", err
	}
	result, err := loadData(cmd.Context())
	if err != nil {
		return model.DashboardView{}, "", err
	}

	var opts []pipeline.Option
	if cmd.Flags().Changed("seed") {
		opts = append(opts, pipeline.WithRand(pipeline.NewRand(flagSeed)))
	}
	return pipeline.Compute(result.Records, criteria, mode, opts...), currency, nil
}

// filterLabel renders the active filters for titles.
func filterLabel(c model.FilterCriteria) string {
	agencies := "All agencies"
	if !c.AllAgencies() {
		if len(c.Agencies) == 1 {
			agencies = c.Agencies[0]
		} else {
			agencies = fmt.Sprintf("%d agencies", len(c.Agencies))
		}
	}
	month := "All months"
	if !c.AllMonths() {
		month = c.Month
	}
	return month + "  " + agencies
}
