// Package cmd implements the larder CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/larder/internal/cli"
	"github.com/theirongolddev/larder/internal/config"
	"github.com/theirongolddev/larder/internal/expiry"
	"github.com/theirongolddev/larder/internal/forecast"
	"github.com/theirongolddev/larder/internal/inventory"
	"github.com/theirongolddev/larder/internal/logging"
	"github.com/theirongolddev/larder/internal/lookup"
	"github.com/theirongolddev/larder/internal/model"
	"github.com/theirongolddev/larder/internal/notify"
	"github.com/theirongolddev/larder/internal/store"
)

var (
	flagDBPath   string
	flagQuiet    bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:          "larder",
	Short:        "Household perishables inventory",
	Long:         "Track what is in the fridge, freezer and pantry: expiry alerts, depletion forecasts, shopping lists and waste.",
	RunE:         runList,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error, off")
}

// app is the wired set of components shared by every command.
type app struct {
	cfg config.Config
	log zerolog.Logger
	db  *store.SQLite

	inv    *inventory.Store
	adv    *expiry.Advisor
	fc     *forecast.Forecaster
	lookup *lookup.Service
	ntf    *notify.Notifier
}

// openApp loads config, opens the database and builds every component.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if flagQuiet && flagLogLevel == "" {
		level = "error"
	}
	// Detached daemons log to a file, so no console colors there.
	log := logging.New(logging.Options{Level: level, Pretty: cfg.Log.Pretty && !flagDaemonChild})

	dbPath := flagDBPath
	if dbPath == "" {
		dbPath = config.DBPath(cfg)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	inv := inventory.Open(ctx, db, inventory.Options{
		Logger:    logging.Component(log, "inventory"),
		Retention: cfg.Ledger.Retention,
	})
	adv := expiry.Open(ctx, inv, db, expiry.Options{Logger: logging.Component(log, "expiry")})
	fc := forecast.New(inv, forecast.Options{
		Config: forecast.Config{
			ReorderLeadDays:  cfg.Forecast.ReorderLeadDays,
			SmoothingAlpha:   cfg.Forecast.SmoothingAlpha,
			BlendHorizonDays: cfg.Forecast.BlendHorizonDays,
			DefaultUsageRate: cfg.Forecast.DefaultUsageRate,
		},
		Logger: logging.Component(log, "forecast"),
	})

	var fetcher lookup.Fetcher = lookup.Disabled{}
	if !cfg.Lookup.Disabled {
		fetcher = lookup.NewOpenFoodFacts(cfg.Lookup.BaseURL, cfg.LookupTimeout())
	}
	lk := lookup.Open(ctx, db, fetcher, lookup.Options{
		MaxAge:  cfg.LookupMaxAge(),
		Timeout: cfg.LookupTimeout(),
		Logger:  logging.Component(log, "lookup"),
	})

	ntfLog := logging.Component(log, "notify")
	var out notify.Deliverer = notify.LogDeliverer{Log: ntfLog}
	if url := config.GetWebhookURL(cfg); url != "" {
		out = notify.Multi{out, notify.NewWebhook(url, cfg.LookupTimeout())}
	}
	ntf := notify.Open(ctx, db, out, notify.Options{
		Policy: notify.Policy{
			MaxPerDay:      cfg.Notify.MaxPerDay,
			QuietHours:     cfg.Notify.QuietHours,
			QuietStartHour: cfg.Notify.QuietStartHour,
			QuietEndHour:   cfg.Notify.QuietEndHour,
		},
		Logger: ntfLog,
	})

	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		inv:    inv,
		adv:    adv,
		fc:     fc,
		lookup: lk,
		ntf:    ntf,
	}, nil
}

func (a *app) Close() {
	a.adv.Close()
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing database")
	}
}

func (a *app) money(amount float64) string {
	return cli.FormatMoney(a.cfg.General.Currency, amount)
}

// withApp adapts a command body that needs the wired components.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a, args)
	}
}

// resolveItem finds an item by id, exact name, or a unique name match.
func (a *app) resolveItem(ref string) (model.InventoryItem, error) {
	if it, ok := a.inv.Item(ref); ok {
		return it, nil
	}
	matches := a.inv.Search(ref)
	for _, it := range matches {
		if strings.EqualFold(it.Name, ref) {
			return it, nil
		}
	}
	switch len(matches) {
	case 0:
		return model.InventoryItem{}, fmt.Errorf("no item matches %q", ref)
	case 1:
		return matches[0], nil
	}
	names := make([]string, 0, len(matches))
	for _, it := range matches {
		names = append(names, it.Name)
	}
	return model.InventoryItem{}, fmt.Errorf("%q is ambiguous: %s", ref, strings.Join(names, ", "))
}

func progressf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
