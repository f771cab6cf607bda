package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/larder/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupValues mirrors the form fields; they are copied into the config
// only when the form completes.
type setupValues struct {
	dataDir      string
	currency     string
	expiringDays int
	maxPerDay    int
	quietHours   bool
	webhook      string
	lookup       bool
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	v := setupValues{
		dataDir:      cfg.General.DataDir,
		currency:     cfg.General.Currency,
		expiringDays: cfg.General.ExpiringDays,
		maxPerDay:    cfg.Notify.MaxPerDay,
		quietHours:   cfg.Notify.QuietHours,
		webhook:      cfg.Notify.WebhookURL,
		lookup:       !cfg.Lookup.Disabled,
	}

	fmt.Println()
	fmt.Println("  Welcome to larder!")
	fmt.Println()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Data directory").
				Description("Where larder.db lives. Leave blank for " + config.DataDir(config.Config{}) + ".").
				Value(&v.dataDir),
			huh.NewInput().
				Title("Currency symbol").
				Value(&v.currency).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("currency symbol is required")
					}
					return nil
				}),
			huh.NewSelect[int]().
				Title("Warn about items expiring within").
				Options(
					huh.NewOption("2 days", 2),
					huh.NewOption("3 days", 3),
					huh.NewOption("5 days", 5),
					huh.NewOption("7 days", 7),
				).
				Value(&v.expiringDays),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Notifications per day").
				Options(
					huh.NewOption("Unlimited", 0),
					huh.NewOption("3", 3),
					huh.NewOption("5", 5),
					huh.NewOption("10", 10),
				).
				Value(&v.maxPerDay),
			huh.NewConfirm().
				Title(fmt.Sprintf("Stay quiet %02d:00-%02d:00?", cfg.Notify.QuietStartHour, cfg.Notify.QuietEndHour)).
				Value(&v.quietHours),
			huh.NewInput().
				Title("Webhook URL").
				Description("Optional. Notifications are POSTed here as JSON.").
				Value(&v.webhook).
				Validate(validateWebhook),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Look up scanned barcodes on Open Food Facts?").
				Value(&v.lookup),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled; nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	cfg.General.DataDir = strings.TrimSpace(v.dataDir)
	cfg.General.Currency = strings.TrimSpace(v.currency)
	cfg.General.ExpiringDays = v.expiringDays
	cfg.Notify.MaxPerDay = v.maxPerDay
	cfg.Notify.QuietHours = v.quietHours
	cfg.Notify.WebhookURL = strings.TrimSpace(v.webhook)
	cfg.Lookup.Disabled = !v.lookup

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `larder setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func validateWebhook(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("webhook must be an http(s) URL")
	}
	return nil
}
