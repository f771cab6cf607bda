package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/larder/internal/cli"
	"github.com/theirongolddev/larder/internal/model"
)

var flagStatsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Inventory and waste dashboard",
	RunE:  withApp(runStats),
}

func init() {
	statsCmd.Flags().IntVarP(&flagStatsDays, "days", "n", 30, "Waste window in days")
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ context.Context, a *app, _ []string) error {
	st := a.inv.Stats()

	fmt.Println()
	fmt.Println(cli.RenderTitle("LARDER STATS"))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Inventory",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Items", strconv.Itoa(st.TotalItems)},
			{"Value", a.money(st.TotalValue)},
			{"Expiring in 48h", strconv.Itoa(st.ExpiringSoon)},
			{"Expiring this week", strconv.Itoa(st.ExpiringThisWeek)},
			{"Low stock", strconv.Itoa(st.LowStock)},
			{"Avg lifespan", fmt.Sprintf("%.1f days", st.AvgLifespanDays)},
		},
	}))

	if st.TotalItems > 0 {
		fmt.Println("  By Location")
		for _, loc := range model.Locations {
			if n := st.ByLocation[loc]; n > 0 {
				fmt.Printf("%s %d\n", cli.RenderHorizontalBar(string(loc), float64(n), float64(st.TotalItems), 30), n)
			}
		}
		fmt.Println()

		type catCount struct {
			cat model.Category
			n   int
		}
		cats := make([]catCount, 0, len(st.ByCategory))
		for c, n := range st.ByCategory {
			cats = append(cats, catCount{c, n})
		}
		sort.Slice(cats, func(i, j int) bool {
			if cats[i].n != cats[j].n {
				return cats[i].n > cats[j].n
			}
			return cats[i].cat < cats[j].cat
		})
		fmt.Println("  By Category")
		for _, c := range cats {
			fmt.Printf("%s %d\n", cli.RenderHorizontalBar(string(c.cat), float64(c.n), float64(st.TotalItems), 30), c.n)
		}
		fmt.Println()
	}

	ws := a.adv.WasteStats(flagStatsDays)
	if ws.TotalCount == 0 {
		fmt.Printf("  No waste in the last %d days.\n\n", ws.PeriodDays)
		return nil
	}

	rows := make([][]string, 0, len(ws.ByReason)+3)
	for _, r := range []model.WasteReason{model.WasteExpired, model.WasteSpoiled, model.WasteDamaged, model.WasteDisliked, model.WasteOther} {
		rs, ok := ws.ByReason[r]
		if !ok {
			continue
		}
		rows = append(rows, []string{string(r), strconv.Itoa(rs.Count), a.money(rs.Cost)})
	}
	rows = append(rows, []string{"---"},
		[]string{"TOTAL", strconv.Itoa(ws.TotalCount), a.money(ws.TotalCost)},
		[]string{"Preventable", cli.FormatPercent(ws.PreventablePercent), ""})
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Waste  Last %dd", ws.PeriodDays),
		Headers: []string{"Reason", "Count", "Cost"},
		Rows:    rows,
	}))

	if len(ws.TopItems) > 0 {
		top := make([][]string, 0, len(ws.TopItems))
		for _, it := range ws.TopItems {
			top = append(top, []string{it.Name, strconv.Itoa(it.Count), a.money(it.Cost)})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Most Wasted",
			Headers: []string{"Item", "Count", "Cost"},
			Rows:    top,
		}))
	}
	return nil
}
