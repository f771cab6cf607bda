package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/larder/internal/cli"
	"github.com/theirongolddev/larder/internal/model"
)

var (
	flagPredictRefresh bool
	flagShoppingBulk   bool
)

var predictCmd = &cobra.Command{
	Use:   "predict [ITEM]",
	Short: "Forecast when items run out",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withApp(runPredict),
}

var shoppingCmd = &cobra.Command{
	Use:   "shopping",
	Short: "Generate a prioritized shopping list",
	RunE:  withApp(runShopping),
}

func init() {
	predictCmd.Flags().BoolVar(&flagPredictRefresh, "refresh", false, "Write fitted usage rates back to the inventory")
	shoppingCmd.Flags().BoolVar(&flagShoppingBulk, "bulk", false, "Include bulk buying recommendations")
	rootCmd.AddCommand(predictCmd, shoppingCmd)
}

func runPredict(ctx context.Context, a *app, args []string) error {
	if flagPredictRefresh {
		n := a.fc.RefreshUsageRates(ctx)
		progressf("  Refreshed usage rates for %d item(s)\n", n)
	}

	preds := a.fc.PredictAllUsage()
	if len(args) == 1 {
		it, err := a.resolveItem(args[0])
		if err != nil {
			return err
		}
		p, _ := a.fc.PredictUsage(it.ID)
		preds = []model.UsagePrediction{p}
	}
	if len(preds) == 0 {
		fmt.Println("\n  No items to forecast.")
		return nil
	}

	now := a.inv.Now()
	rows := make([][]string, 0, len(preds))
	for _, p := range preds {
		it, _ := a.inv.Item(p.ItemID)
		rows = append(rows, []string{
			p.ItemName,
			cli.FormatQuantity(p.CurrentQuantity, it.Unit),
			cli.FormatRate(p.DailyUsageRate, it.Unit),
			cli.FormatDays(cli.DaysBetween(now, p.PredictedDepletionDate)),
			cli.FormatDate(p.SuggestedReorderDate),
			cli.FormatQuantity(p.SuggestedReorderQuantity, it.Unit),
			cli.FormatPercent(p.ConfidenceScore),
			strconv.Itoa(p.HistoricalDataPoints),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("DEPLETION FORECAST"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Item", "Qty", "Usage", "Runs Out", "Reorder On", "Reorder Qty", "Confidence", "Points"},
		Rows:    rows,
	}))
	return nil
}

func runShopping(_ context.Context, a *app, _ []string) error {
	list := a.fc.GenerateShoppingList()
	if len(list) == 0 {
		fmt.Println("\n  Nothing to buy.")
	} else {
		rows := make([][]string, 0, len(list)+2)
		var total float64
		for _, e := range list {
			rows = append(rows, []string{
				e.Name,
				cli.Priority(e.Priority),
				string(e.Reason),
				cli.FormatQuantity(e.SuggestedQuantity, e.Unit),
				a.money(e.EstimatedCost),
			})
			total += e.EstimatedCost
		}
		rows = append(rows, []string{"---"}, []string{"TOTAL", "", "", "", a.money(total)})

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("SHOPPING LIST  %d items", len(list))))
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Headers:  []string{"Item", "Priority", "Reason", "Qty", "Est. Cost"},
			Rows:     rows,
			LeftCols: 3,
		}))
	}

	if !flagShoppingBulk {
		return nil
	}
	recs := a.fc.BulkBuyingRecommendations()
	if len(recs) == 0 {
		fmt.Println("  No bulk savings worth chasing.")
		return nil
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.ItemName,
			cli.FormatQuantity(r.MonthlyUsage, r.Unit),
			cli.FormatQuantity(r.BulkQuantity, r.Unit),
			a.money(r.RegularCost),
			a.money(r.BulkCost),
			a.money(r.Savings),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Bulk Buying",
		Headers: []string{"Item", "Monthly", "Bulk Qty", "Regular", "Bulk", "Savings"},
		Rows:    rows,
	}))
	return nil
}
