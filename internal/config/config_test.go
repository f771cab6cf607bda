package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Forecast.ReorderLeadDays != 3 || cfg.Notify.MaxPerDay != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if Exists() {
		t.Fatal("Exists() = true before Save")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.DataDir = "/srv/larder"
	cfg.Notify.WebhookURL = "https://hooks.example/larder"
	cfg.Forecast.SmoothingAlpha = 0.5
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestLoad_NormalizesOutOfRange(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	raw := `
[forecast]
reorder_lead_days = 40
smoothing_alpha = 2.5

[notify]
quiet_start_hour = 30

[daemon]
interval_minutes = -1
`
	if err := os.MkdirAll(filepath.Join(dir, "larder"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "larder", "config.toml"), []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Forecast.ReorderLeadDays != 14 {
		t.Errorf("ReorderLeadDays = %d, want 14", cfg.Forecast.ReorderLeadDays)
	}
	if cfg.Forecast.SmoothingAlpha != 0.3 {
		t.Errorf("SmoothingAlpha = %v, want 0.3", cfg.Forecast.SmoothingAlpha)
	}
	if cfg.Notify.QuietStartHour != 22 {
		t.Errorf("QuietStartHour = %d, want 22", cfg.Notify.QuietStartHour)
	}
	if cfg.DaemonInterval() != 15*time.Minute {
		t.Errorf("DaemonInterval = %v, want 15m", cfg.DaemonInterval())
	}
	if cfg.Lookup.CacheDays != 30 {
		t.Errorf("unset sections keep defaults, got CacheDays=%d", cfg.Lookup.CacheDays)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	_ = os.MkdirAll(filepath.Join(dir, "larder"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "larder", "config.toml"), []byte("[forecast\n"), 0o600)

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	if got := DataDir(DefaultConfig()); got != "/xdg/data/larder" {
		t.Errorf("DataDir = %q", got)
	}
	cfg := DefaultConfig()
	cfg.General.DataDir = "/custom"
	if got := DBPath(cfg); got != "/custom/larder.db" {
		t.Errorf("DBPath = %q", got)
	}
}

func TestGetWebhookURL_EnvWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Notify.WebhookURL = "https://from-config"
	t.Setenv("LARDER_WEBHOOK_URL", "")
	if got := GetWebhookURL(cfg); got != "https://from-config" {
		t.Errorf("got %q", got)
	}
	t.Setenv("LARDER_WEBHOOK_URL", "https://from-env")
	if got := GetWebhookURL(cfg); got != "https://from-env" {
		t.Errorf("got %q", got)
	}
}
