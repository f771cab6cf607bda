package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/larder/internal/cli"
	"github.com/theirongolddev/larder/internal/inventory"
	"github.com/theirongolddev/larder/internal/model"
)

var (
	flagExpiringDays int
	flagAlertsAll    bool
	flagWasteNotes   string
)

var expiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List items expiring soon",
	RunE:  withApp(runExpiring),
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Check expiry and show active alerts",
	RunE:  withApp(runAlerts),
}

var alertsAckCmd = &cobra.Command{
	Use:   "ack ALERT_ID...",
	Short: "Acknowledge alerts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runAlertsAck),
}

var wasteCmd = &cobra.Command{
	Use:   "waste ITEM [REASON]",
	Short: "Throw an item out and record the waste",
	Long:  "Records the remaining stock as waste and removes the item. REASON is one of expired, spoiled, damaged, disliked or other.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  withApp(runWaste),
}

func init() {
	expiringCmd.Flags().IntVarP(&flagExpiringDays, "days", "n", 0, "Window in days (default from config)")
	alertsCmd.Flags().BoolVarP(&flagAlertsAll, "all", "a", false, "Include acknowledged alerts")
	wasteCmd.Flags().StringVar(&flagWasteNotes, "notes", "", "Notes for the waste record")

	alertsCmd.AddCommand(alertsAckCmd)
	rootCmd.AddCommand(expiringCmd, alertsCmd, wasteCmd)
}

func runExpiring(_ context.Context, a *app, _ []string) error {
	days := flagExpiringDays
	if days <= 0 {
		days = a.cfg.General.ExpiringDays
	}
	items := a.inv.ExpiringWithin(days)
	if len(items) == 0 {
		fmt.Printf("\n  Nothing expires in the next %d days.\n", days)
		return nil
	}

	now := a.inv.Now()
	rows := make([][]string, 0, len(items))
	var atRisk float64
	for _, it := range items {
		rows = append(rows, []string{
			it.Name,
			string(it.Location),
			cli.FormatQuantity(it.Quantity, it.Unit),
			cli.FormatDays(inventory.DaysUntilExpiry(it, now)),
			cli.Freshness(inventory.FreshnessOf(it, now)),
		})
		atRisk += it.CostPerUnit * it.Quantity
	}
	if atRisk > 0 {
		rows = append(rows, []string{"---"}, []string{"AT RISK", "", a.money(atRisk), "", ""})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("EXPIRING  Next %dd", days)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Item", "Location", "Qty", "Expires", "Freshness"},
		Rows:     rows,
		LeftCols: 2,
	}))
	return nil
}

func runAlerts(ctx context.Context, a *app, _ []string) error {
	created := a.adv.CheckAllExpiry(ctx)
	if len(created) > 0 {
		progressf("  %d new alert(s)\n", len(created))
	}

	alerts := a.adv.ActiveAlerts()
	if flagAlertsAll {
		alerts = a.adv.Alerts()
	}
	if len(alerts) == 0 {
		fmt.Println("\n  No active alerts.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ALERTS  %d", len(alerts))))
	fmt.Println()
	for _, al := range alerts {
		printAlert(al)
	}
	fmt.Printf("  %s\n\n", cli.Muted("Acknowledge with: larder alerts ack ID"))
	return nil
}

func printAlert(al model.ExpiryAlert) {
	status := ""
	if al.Acknowledged {
		status = cli.Muted(" (acknowledged)")
	}
	fmt.Printf("  %s  %s  %s%s\n", cli.Alert(al.AlertType), al.ItemName, cli.FormatDays(al.DaysUntilExpiry), status)
	for _, action := range al.SuggestedActions {
		fmt.Printf("      - %s\n", action)
	}
	if len(al.MealSuggestions) > 0 {
		fmt.Printf("      %s %s\n", cli.Muted("meals:"), strings.Join(al.MealSuggestions, ", "))
	}
	fmt.Printf("      %s\n\n", cli.Muted("id "+al.ID))
}

func runAlertsAck(ctx context.Context, a *app, args []string) error {
	var missing []string
	for _, id := range args {
		if !a.adv.AcknowledgeAlert(ctx, id) {
			missing = append(missing, id)
			continue
		}
		fmt.Printf("  Acknowledged %s\n", id)
	}
	if len(missing) > 0 {
		return fmt.Errorf("no alert with id %s", strings.Join(missing, ", "))
	}
	return nil
}

func runWaste(ctx context.Context, a *app, args []string) error {
	it, err := a.resolveItem(args[0])
	if err != nil {
		return err
	}
	reason := model.WasteOther
	if len(args) > 1 {
		if reason, err = parseWasteReason(args[1]); err != nil {
			return err
		}
	} else if inventory.DaysUntilExpiry(it, a.inv.Now()) < 0 {
		reason = model.WasteExpired
	}

	rec, ok := a.adv.RecordWaste(ctx, it.ID, reason, flagWasteNotes)
	if !ok {
		return fmt.Errorf("item %s disappeared", it.ID)
	}
	fmt.Printf("  Recorded %s of %s as %s waste (%s)\n",
		cli.FormatQuantity(rec.Quantity, rec.Unit), rec.ItemName, rec.Reason, a.money(rec.Cost))
	return nil
}
