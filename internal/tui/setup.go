package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/storage"
	"github.com/theirongolddev/salesdash/internal/tui/theme"
)

// SetupValues holds the answers collected by the setup form. The form
// binds to its fields, so it must stay at a stable address while the
// form runs.
type SetupValues struct {
	Source          string
	Year            string
	Mode            string
	Currency        string
	OutputDir       string
	UploadBucket    string
	ProcessedBucket string
	User            string
	Theme           string
}

// NewSetupValues seeds the form from an existing configuration.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		Source:          cfg.General.Source,
		Year:            strconv.Itoa(cfg.General.ReferenceYear),
		Mode:            cfg.General.DefaultMode,
		Currency:        cfg.General.Currency,
		OutputDir:       cfg.Storage.OutputDir,
		UploadBucket:    cfg.Storage.UploadBucket,
		ProcessedBucket: cfg.Storage.ProcessedBucket,
		User:            cfg.General.User,
		Theme:           cfg.Appearance.Theme,
	}
}

// NewSetupForm builds the first-run form bound to v.
func NewSetupForm(v *SetupValues) *huh.Form {
	modes := make([]string, len(model.Modes))
	for i, m := range model.Modes {
		modes[i] = string(m)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to salesdash").
				Description("A few settings and you are ready.\nEverything can be changed later in the config file."),
			huh.NewInput().
				Title("Default data source").
				Description("CSV path, http(s) URL or gs://bucket/object. Leave blank to follow uploads.").
				Value(&v.Source).
				Validate(validateSource),
			huh.NewInput().
				Title("Reference year").
				Description("Report dates carry no year; this one is applied to all of them.").
				Value(&v.Year).
				Validate(validateYear),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default view").
				Options(huh.NewOptions(modes...)...).
				Value(&v.Mode),
			huh.NewSelect[string]().
				Title("Currency").
				Options(huh.NewOptions(string(model.CurrencyUSD), string(model.CurrencyNPR))...).
				Value(&v.Currency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&v.Theme),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Upload bucket").
				Description("GCS bucket that archives raw workbooks (optional).").
				Value(&v.UploadBucket),
			huh.NewInput().
				Title("Processed bucket").
				Description("GCS bucket for normalized CSVs. Blank writes them locally.").
				Value(&v.ProcessedBucket),
			huh.NewInput().
				Title("Local output directory").
				Placeholder(config.DefaultOutputDir()).
				Value(&v.OutputDir),
			huh.NewInput().
				Title("Your name").
				Description("Recorded with uploads.").
				Value(&v.User),
		),
	).WithShowHelp(true)
}

// Apply copies the answers into cfg.
func (v *SetupValues) Apply(cfg *config.Config) error {
	if err := validateYear(v.Year); err != nil {
		return err
	}
	year, _ := strconv.Atoi(strings.TrimSpace(v.Year))

	mode, err := model.ParseMode(v.Mode)
	if err != nil {
		return err
	}

	cfg.General.Source = strings.TrimSpace(v.Source)
	cfg.General.ReferenceYear = year
	cfg.General.DefaultMode = string(mode)
	cfg.General.Currency = string(model.ParseCurrency(v.Currency))
	cfg.General.User = strings.TrimSpace(v.User)
	cfg.Storage.OutputDir = strings.TrimSpace(v.OutputDir)
	cfg.Storage.UploadBucket = strings.TrimSpace(v.UploadBucket)
	cfg.Storage.ProcessedBucket = strings.TrimSpace(v.ProcessedBucket)
	cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	return nil
}

func validateYear(s string) error {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || year < 2000 || year > 2100 {
		return fmt.Errorf("year must be between 2000 and 2100, got %q", s)
	}
	return nil
}

func validateSource(s string) error {
	s = strings.TrimSpace(s)
	if storage.IsGCS(s) {
		_, object, err := storage.ParseGCSURI(s)
		if err != nil {
			return err
		}
		if object == "" {
			return errors.New("gs:// source needs an object path")
		}
	}
	if strings.Contains(s, "://") && !storage.IsGCS(s) && !storage.IsHTTP(s) {
		return errors.New("use a path, http(s):// URL or gs:// URI")
	}
	return nil
}
