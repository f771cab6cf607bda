package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/larder/internal/config"
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
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Database:    %s\n", config.DBPath(cfg))
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Expiring window: %d days\n", cfg.General.ExpiringDays)
	fmt.Printf("    Currency:        %s\n", cfg.General.Currency)
	fmt.Println()

	fmt.Println("  [Forecast]")
	fmt.Printf("    Reorder lead:    %d days\n", cfg.Forecast.ReorderLeadDays)
	fmt.Printf("    Smoothing alpha: %.2f\n", cfg.Forecast.SmoothingAlpha)
	fmt.Printf("    Blend horizon:   %.0f days\n", cfg.Forecast.BlendHorizonDays)
	fmt.Printf("    Default rate:    %.2f/day\n", cfg.Forecast.DefaultUsageRate)
	fmt.Println()

	fmt.Println("  [Notify]")
	fmt.Printf("    Max per day: %d\n", cfg.Notify.MaxPerDay)
	if cfg.Notify.QuietHours {
		fmt.Printf("    Quiet hours: %02d:00-%02d:00\n", cfg.Notify.QuietStartHour, cfg.Notify.QuietEndHour)
	} else {
		fmt.Println("    Quiet hours: off")
	}
	if url := config.GetWebhookURL(cfg); url != "" {
		fmt.Printf("    Webhook:     %s\n", maskURL(url))
	} else {
		fmt.Println("    Webhook:     not configured")
	}
	fmt.Println()

	fmt.Println("  [Lookup]")
	if cfg.Lookup.Disabled {
		fmt.Println("    Catalog: disabled")
	} else {
		base := cfg.Lookup.BaseURL
		if base == "" {
			base = "Open Food Facts (default)"
		}
		fmt.Printf("    Catalog:   %s\n", base)
		fmt.Printf("    Cache for: %d days\n", cfg.Lookup.CacheDays)
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.DaemonInterval())
	fmt.Println()

	fmt.Println("  Run `larder setup` to reconfigure.")
	return nil
}

// maskURL hides the tail of a webhook URL, which may embed a token.
func maskURL(u string) string {
	if len(u) > 32 {
		return u[:24] + "..." + u[len(u)-4:]
	}
	return u
}
