// Package config loads and saves the larder TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all larder configuration.
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Forecast ForecastConfig `toml:"forecast"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Notify   NotifyConfig   `toml:"notify"`
	Lookup   LookupConfig   `toml:"lookup"`
	Daemon   DaemonConfig   `toml:"daemon"`
	Log      LogConfig      `toml:"log"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir      string `toml:"data_dir,omitempty"`
	ExpiringDays int    `toml:"expiring_days"`
	Currency     string `toml:"currency"`
}

// ForecastConfig tunes the depletion forecaster.
type ForecastConfig struct {
	ReorderLeadDays  int     `toml:"reorder_lead_days"`
	SmoothingAlpha   float64 `toml:"smoothing_alpha"`
	BlendHorizonDays float64 `toml:"blend_horizon_days"`
	DefaultUsageRate float64 `toml:"default_usage_rate"`
}

// LedgerConfig bounds the transaction log.
type LedgerConfig struct {
	Retention int `toml:"retention"`
}

// NotifyConfig holds notification throttling and delivery settings.
type NotifyConfig struct {
	MaxPerDay      int    `toml:"max_per_day"`
	QuietHours     bool   `toml:"quiet_hours"`
	QuietStartHour int    `toml:"quiet_start_hour"`
	QuietEndHour   int    `toml:"quiet_end_hour"`
	WebhookURL     string `toml:"webhook_url,omitempty"`
}

// LookupConfig holds barcode catalog settings.
type LookupConfig struct {
	Disabled       bool   `toml:"disabled"`
	BaseURL        string `toml:"base_url,omitempty"`
	CacheDays      int    `toml:"cache_days"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DaemonConfig holds background sweeper settings.
type DaemonConfig struct {
	Addr            string `toml:"addr"`
	IntervalMinutes int    `toml:"interval_minutes"`
	EventsBuffer    int    `toml:"events_buffer"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			ExpiringDays: 3,
			Currency:     "$",
		},
		Forecast: ForecastConfig{
			ReorderLeadDays:  3,
			SmoothingAlpha:   0.3,
			BlendHorizonDays: 14,
			DefaultUsageRate: 0.1,
		},
		Ledger: LedgerConfig{Retention: 10000},
		Notify: NotifyConfig{
			MaxPerDay:      5,
			QuietHours:     true,
			QuietStartHour: 22,
			QuietEndHour:   7,
		},
		Lookup: LookupConfig{
			CacheDays:      30,
			TimeoutSeconds: 10,
		},
		Daemon: DaemonConfig{
			Addr:            "127.0.0.1:8797",
			IntervalMinutes: 15,
			EventsBuffer:    200,
		},
		Log: LogConfig{Level: "info", Pretty: true},
	}
}

// Normalize replaces out-of-range values with defaults or clamps them.
func (c *Config) Normalize() {
	d := DefaultConfig()

	if c.General.ExpiringDays <= 0 {
		c.General.ExpiringDays = d.General.ExpiringDays
	}
	if c.General.Currency == "" {
		c.General.Currency = d.General.Currency
	}

	switch {
	case c.Forecast.ReorderLeadDays == 0:
		c.Forecast.ReorderLeadDays = d.Forecast.ReorderLeadDays
	case c.Forecast.ReorderLeadDays < 1:
		c.Forecast.ReorderLeadDays = 1
	case c.Forecast.ReorderLeadDays > 14:
		c.Forecast.ReorderLeadDays = 14
	}
	if c.Forecast.SmoothingAlpha <= 0 || c.Forecast.SmoothingAlpha > 1 {
		c.Forecast.SmoothingAlpha = d.Forecast.SmoothingAlpha
	}
	if c.Forecast.BlendHorizonDays <= 0 {
		c.Forecast.BlendHorizonDays = d.Forecast.BlendHorizonDays
	}
	if c.Forecast.DefaultUsageRate <= 0 {
		c.Forecast.DefaultUsageRate = d.Forecast.DefaultUsageRate
	}

	if c.Ledger.Retention <= 0 {
		c.Ledger.Retention = d.Ledger.Retention
	}

	if c.Notify.MaxPerDay < 0 {
		c.Notify.MaxPerDay = d.Notify.MaxPerDay
	}
	if c.Notify.QuietStartHour < 0 || c.Notify.QuietStartHour > 23 {
		c.Notify.QuietStartHour = d.Notify.QuietStartHour
	}
	if c.Notify.QuietEndHour < 0 || c.Notify.QuietEndHour > 23 {
		c.Notify.QuietEndHour = d.Notify.QuietEndHour
	}

	if c.Lookup.CacheDays <= 0 {
		c.Lookup.CacheDays = d.Lookup.CacheDays
	}
	if c.Lookup.TimeoutSeconds <= 0 {
		c.Lookup.TimeoutSeconds = d.Lookup.TimeoutSeconds
	}

	if c.Daemon.Addr == "" {
		c.Daemon.Addr = d.Daemon.Addr
	}
	if c.Daemon.IntervalMinutes <= 0 {
		c.Daemon.IntervalMinutes = d.Daemon.IntervalMinutes
	}
	if c.Daemon.EventsBuffer <= 0 {
		c.Daemon.EventsBuffer = d.Daemon.EventsBuffer
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// LookupTimeout returns the catalog request timeout.
func (c Config) LookupTimeout() time.Duration {
	return time.Duration(c.Lookup.TimeoutSeconds) * time.Second
}

// LookupMaxAge returns how long a cached product stays fresh.
func (c Config) LookupMaxAge() time.Duration {
	return time.Duration(c.Lookup.CacheDays) * 24 * time.Hour
}

// DaemonInterval returns the sweep period.
func (c Config) DaemonInterval() time.Duration {
	return time.Duration(c.Daemon.IntervalMinutes) * time.Minute
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "larder")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "larder")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns where the database lives: the configured directory, or
// the XDG data directory.
func DataDir(cfg Config) string {
	if cfg.General.DataDir != "" {
		return cfg.General.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "larder")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "larder")
}

// DBPath returns the SQLite database path.
func DBPath(cfg Config) string {
	return filepath.Join(DataDir(cfg), "larder.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Normalize()

	return cfg, nil
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
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetWebhookURL returns the webhook from env var or config, in that order.
func GetWebhookURL(cfg Config) string {
	if url := os.Getenv("LARDER_WEBHOOK_URL"); url != "" {
		return url
	}
	return cfg.Notify.WebhookURL
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
