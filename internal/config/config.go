// Package config loads salesdash settings from TOML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all salesdash configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Storage    StorageConfig    `toml:"storage"`
	Server     ServerConfig     `toml:"server"`
	Influx     InfluxConfig     `toml:"influx"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds dashboard defaults.
type GeneralConfig struct {
	Source        string `toml:"source,omitempty"`
	ReferenceYear int    `toml:"reference_year"`
	DefaultMode   string `toml:"default_mode"`
	Currency      string `toml:"currency"`
	User          string `toml:"user,omitempty"`
}

// StorageConfig locates uploaded workbooks and normalized CSVs.
type StorageConfig struct {
	UploadBucket    string `toml:"upload_bucket,omitempty"`
	UploadPrefix    string `toml:"upload_prefix,omitempty"`
	ProcessedBucket string `toml:"processed_bucket,omitempty"`
	OutputDir       string `toml:"output_dir,omitempty"`
}

// ServerConfig holds `salesdash serve` settings.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	PollSchedule string `toml:"poll_schedule"`
	EventsBuffer int    `toml:"events_buffer"`
}

// InfluxConfig holds the InfluxDB export target.
type InfluxConfig struct {
	URL    string `toml:"url,omitempty"`
	Org    string `toml:"org,omitempty"`
	Bucket string `toml:"bucket,omitempty"`
	Token  string `toml:"token,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			ReferenceYear: 2025,
			DefaultMode:   "monthly",
			Currency:      "USD",
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8787",
			PollSchedule: "@every 15s",
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "salesdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "salesdash")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultOutputDir is where normalized CSVs land when no processed
// bucket is configured.
func DefaultOutputDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "salesdash", "processed")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "salesdash", "processed")
}

// LoadEnv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	overrides := []struct {
		env string
		dst *string
	}{
		{"SALESDASH_SOURCE", &cfg.General.Source},
		{"SALESDASH_USER", &cfg.General.User},
		{"SALESDASH_UPLOAD_BUCKET", &cfg.Storage.UploadBucket},
		{"SALESDASH_PROCESSED_BUCKET", &cfg.Storage.ProcessedBucket},
		{"SALESDASH_OUTPUT_DIR", &cfg.Storage.OutputDir},
		{"SALESDASH_ADDR", &cfg.Server.Addr},
		{"INFLUX_URL", &cfg.Influx.URL},
		{"INFLUX_ORG", &cfg.Influx.Org},
		{"INFLUX_BUCKET", &cfg.Influx.Bucket},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}

	if v := os.Getenv("SALESDASH_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SALESDASH_YEAR: %w", err)
		}
		cfg.General.ReferenceYear = year
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// GetInfluxToken returns the InfluxDB token from env var or config, in that order.
func GetInfluxToken(cfg Config) string {
	if tok := os.Getenv("INFLUX_TOKEN"); tok != "" {
		return tok
	}
	return cfg.Influx.Token
}

// OutputDir returns the configured local output directory or the default.
func (c Config) OutputDir() string {
	if c.Storage.OutputDir != "" {
		return c.Storage.OutputDir
	}
	return DefaultOutputDir()
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
