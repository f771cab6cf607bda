package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/larder/internal/cli"
	"github.com/theirongolddev/larder/internal/inventory"
	"github.com/theirongolddev/larder/internal/lookup"
	"github.com/theirongolddev/larder/internal/model"
)

var (
	flagItemQty      float64
	flagItemUnit     string
	flagItemLoc      string
	flagItemCat      string
	flagItemExpires  string
	flagItemCost     float64
	flagItemBrand    string
	flagItemBarcode  string
	flagItemNotes    string
	flagItemRate     float64
	flagItemLeftover bool
	flagItemName     string

	flagListLoc    string
	flagListCat    string
	flagListSearch string

	flagUseMeal     string
	flagRemoveWhy   string
	flagShowHistory int
)

var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add an item to the inventory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runAdd),
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stocked items",
	RunE:    runList,
}

var showCmd = &cobra.Command{
	Use:   "show ITEM",
	Short: "Show one item with its forecast and history",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runShow),
}

var updateCmd = &cobra.Command{
	Use:   "update ITEM",
	Short: "Change an item's fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

var openCmd = &cobra.Command{
	Use:   "open ITEM",
	Short: "Mark an item as opened",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runOpen),
}

var useCmd = &cobra.Command{
	Use:   "use ITEM AMOUNT",
	Short: "Record consumption of an item",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runUse),
}

var moveCmd = &cobra.Command{
	Use:   "move ITEM LOCATION",
	Short: "Move an item to another storage location",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runMove),
}

var removeCmd = &cobra.Command{
	Use:     "remove ITEM",
	Aliases: []string{"rm"},
	Short:   "Remove an item without recording waste",
	Args:    cobra.ExactArgs(1),
	RunE:    withApp(runRemove),
}

func init() {
	addItemFlags(addCmd)
	addCmd.Flags().BoolVar(&flagItemLeftover, "leftover", false, "Item is a leftover from a cooked meal")

	addItemFlags(updateCmd)
	updateCmd.Flags().StringVar(&flagItemName, "name", "", "New name")

	listCmd.Flags().StringVarP(&flagListLoc, "location", "l", "", "Only this storage location")
	listCmd.Flags().StringVarP(&flagListCat, "category", "c", "", "Only this category")
	listCmd.Flags().StringVarP(&flagListSearch, "search", "s", "", "Name or brand substring")

	showCmd.Flags().IntVar(&flagShowHistory, "history", 10, "Ledger entries to show")
	useCmd.Flags().StringVar(&flagUseMeal, "meal", "", "Meal the item was cooked into")
	removeCmd.Flags().StringVar(&flagRemoveWhy, "reason", "", "Why the item was removed")

	rootCmd.AddCommand(addCmd, listCmd, showCmd, updateCmd, openCmd, useCmd, moveCmd, removeCmd)
}

func addItemFlags(c *cobra.Command) {
	c.Flags().Float64Var(&flagItemQty, "qty", 1, "Quantity")
	c.Flags().StringVarP(&flagItemUnit, "unit", "u", "", "Unit (count, g, kg, ml, l, ...)")
	c.Flags().StringVarP(&flagItemLoc, "location", "l", "", "Storage location")
	c.Flags().StringVarP(&flagItemCat, "category", "c", "", "Category (guessed from the name when omitted)")
	c.Flags().StringVarP(&flagItemExpires, "expires", "e", "", "Expiry date: YYYY-MM-DD or +Nd")
	c.Flags().Float64Var(&flagItemCost, "cost", 0, "Total cost paid")
	c.Flags().StringVar(&flagItemBrand, "brand", "", "Brand")
	c.Flags().StringVar(&flagItemBarcode, "barcode", "", "Barcode")
	c.Flags().StringVar(&flagItemNotes, "notes", "", "Free-form notes")
	c.Flags().Float64Var(&flagItemRate, "rate", 0, "Known daily usage rate")
}

func runAdd(ctx context.Context, a *app, args []string) error {
	now := a.inv.Now()
	name := strings.Join(args, " ")

	cat := lookup.MapCategory(name)
	if flagItemCat != "" {
		c, err := parseCategory(flagItemCat)
		if err != nil {
			return err
		}
		cat = c
	}
	loc := lookup.DefaultLocation(cat)
	if flagItemLoc != "" {
		l, err := parseLocation(flagItemLoc)
		if err != nil {
			return err
		}
		loc = l
	}
	expiry := now.AddDate(0, 0, cat.DefaultShelfLifeDays())
	if flagItemExpires != "" {
		d, err := parseDate(flagItemExpires, now)
		if err != nil {
			return err
		}
		expiry = d
	}

	item := a.inv.AddItem(ctx, inventory.NewItem{
		Name:         name,
		Quantity:     inventory.Ptr(flagItemQty),
		Unit:         flagItemUnit,
		Location:     loc,
		Category:     cat,
		ExpiryDate:   &expiry,
		AvgUsageRate: flagItemRate,
		Cost:         flagItemCost,
		Barcode:      flagItemBarcode,
		Brand:        flagItemBrand,
		Notes:        flagItemNotes,
		IsLeftover:   flagItemLeftover,
	})

	fmt.Printf("  Added %s (%s) to %s, expires %s\n",
		item.Name, cli.FormatQuantity(item.Quantity, item.Unit), item.Location,
		cli.FormatDays(inventory.DaysUntilExpiry(item, now)))
	fmt.Printf("  %s\n", cli.Muted("id "+item.ID))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	return withApp(listItems)(cmd, args)
}

func listItems(_ context.Context, a *app, _ []string) error {
	var items []model.InventoryItem
	switch {
	case flagListSearch != "":
		items = a.inv.Search(flagListSearch)
	case flagListLoc != "":
		l, err := parseLocation(flagListLoc)
		if err != nil {
			return err
		}
		items = a.inv.ByLocation(l)
	case flagListCat != "":
		c, err := parseCategory(flagListCat)
		if err != nil {
			return err
		}
		items = a.inv.ByCategory(c)
	default:
		items = a.inv.Items()
	}

	if len(items) == 0 {
		fmt.Println("\n  No items found.")
		return nil
	}

	now := a.inv.Now()
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.Name,
			cli.FormatQuantity(it.Quantity, it.Unit),
			string(it.Location),
			cli.FormatDays(inventory.DaysUntilExpiry(it, now)),
			cli.Freshness(inventory.FreshnessOf(it, now)),
			cli.FormatDate(it.PredictedDepletionDate),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("INVENTORY  %d items", len(items))))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Item", "Qty", "Location", "Expires", "Freshness", "Runs Out"},
		Rows:     rows,
		LeftCols: 3,
	}))
	return nil
}

func runShow(_ context.Context, a *app, args []string) error {
	it, err := a.resolveItem(args[0])
	if err != nil {
		return err
	}
	now := a.inv.Now()

	fmt.Println()
	fmt.Println(cli.RenderTitle(strings.ToUpper(it.Name)))
	fmt.Println()

	rows := [][]string{
		{"Quantity", cli.FormatQuantity(it.Quantity, it.Unit)},
		{"Location", string(it.Location)},
		{"Category", string(it.Category)},
		{"Expires", fmt.Sprintf("%s (%s)", cli.FormatDate(it.ExpiryDate), cli.FormatDays(inventory.DaysUntilExpiry(it, now)))},
		{"Freshness", cli.Freshness(inventory.FreshnessOf(it, now))},
	}
	if it.OpenedDate != nil {
		rows = append(rows, []string{"Opened", cli.FormatDate(*it.OpenedDate)})
	}
	if it.Brand != "" {
		rows = append(rows, []string{"Brand", it.Brand})
	}
	if it.Cost > 0 {
		rows = append(rows, []string{"Cost", fmt.Sprintf("%s (%s/unit)", a.money(it.Cost), a.money(it.CostPerUnit))})
	}
	if it.Notes != "" {
		rows = append(rows, []string{"Notes", it.Notes})
	}
	if it.IsLeftover {
		rows = append(rows, []string{"Leftover", "yes"})
	}
	fmt.Print(cli.RenderTable(cli.Table{Title: "Item", Headers: []string{"Field", "Value"}, Rows: rows, LeftCols: 2}))

	if p, ok := a.fc.PredictUsage(it.ID); ok {
		trend := a.fc.UsageTrend(it.ID)
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Forecast",
			Headers: []string{"Field", "Value"},
			Rows: [][]string{
				{"Usage", cli.FormatRate(p.DailyUsageRate, it.Unit)},
				{"Runs out", fmt.Sprintf("%s (%s)", cli.FormatDate(p.PredictedDepletionDate), cli.FormatDays(cli.DaysBetween(now, p.PredictedDepletionDate)))},
				{"Reorder", fmt.Sprintf("%s on %s", cli.FormatQuantity(p.SuggestedReorderQuantity, it.Unit), cli.FormatDate(p.SuggestedReorderDate))},
				{"Confidence", cli.FormatPercent(p.ConfidenceScore)},
				{"Data points", strconv.Itoa(p.HistoricalDataPoints)},
				{"Trend", cli.Trend(trend)},
			},
			LeftCols: 2,
		}))
	}

	txs := a.inv.Transactions(it.ID)
	if len(txs) > flagShowHistory && flagShowHistory > 0 {
		txs = txs[len(txs)-flagShowHistory:]
	}
	if len(txs) > 0 {
		var usage []float64
		rows := make([][]string, 0, len(txs))
		for _, tx := range txs {
			rows = append(rows, []string{
				tx.Timestamp.Local().Format("Jan 2 15:04"),
				string(tx.Type),
				cli.FormatQuantity(tx.PreviousQuantity, "") + " -> " + cli.FormatQuantity(tx.NewQuantity, ""),
				string(tx.Source),
				tx.Reason,
			})
			if tx.Type == model.TxRemove {
				usage = append(usage, tx.Quantity)
			}
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "History",
			Headers:  []string{"When", "Type", "Qty", "Source", "Reason"},
			Rows:     rows,
			LeftCols: 2,
		}))
		if len(usage) > 1 {
			fmt.Printf("  Usage  %s\n\n", cli.RenderSparkline(usage))
		}
	}
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app, args []string) error {
		it, err := a.resolveItem(args[0])
		if err != nil {
			return err
		}
		upd, err := itemUpdateFromFlags(cmd, a)
		if err != nil {
			return err
		}
		got, ok := a.inv.UpdateItem(ctx, it.ID, upd)
		if !ok {
			return fmt.Errorf("item %s disappeared", it.ID)
		}
		fmt.Printf("  Updated %s (%s, %s)\n", got.Name, cli.FormatQuantity(got.Quantity, got.Unit), got.Location)
		return nil
	})(cmd, args)
}

func itemUpdateFromFlags(cmd *cobra.Command, a *app) (inventory.ItemUpdate, error) {
	var upd inventory.ItemUpdate
	f := cmd.Flags()

	if f.Changed("name") {
		upd.Name = inventory.Ptr(flagItemName)
	}
	if f.Changed("qty") {
		upd.Quantity = inventory.Ptr(flagItemQty)
		upd.Reason = "manual correction"
	}
	if f.Changed("unit") {
		upd.Unit = inventory.Ptr(flagItemUnit)
	}
	if f.Changed("location") {
		l, err := parseLocation(flagItemLoc)
		if err != nil {
			return upd, err
		}
		upd.Location = &l
	}
	if f.Changed("category") {
		c, err := parseCategory(flagItemCat)
		if err != nil {
			return upd, err
		}
		upd.Category = &c
	}
	if f.Changed("expires") {
		d, err := parseDate(flagItemExpires, a.inv.Now())
		if err != nil {
			return upd, err
		}
		upd.ExpiryDate = &d
	}
	if f.Changed("cost") {
		upd.Cost = inventory.Ptr(flagItemCost)
	}
	if f.Changed("brand") {
		upd.Brand = inventory.Ptr(flagItemBrand)
	}
	if f.Changed("barcode") {
		upd.Barcode = inventory.Ptr(flagItemBarcode)
	}
	if f.Changed("notes") {
		upd.Notes = inventory.Ptr(flagItemNotes)
	}
	if f.Changed("rate") {
		upd.AvgUsageRate = inventory.Ptr(flagItemRate)
	}
	return upd, nil
}

func runOpen(ctx context.Context, a *app, args []string) error {
	it, err := a.resolveItem(args[0])
	if err != nil {
		return err
	}
	got, _ := a.inv.MarkOpened(ctx, it.ID)
	fmt.Printf("  Opened %s, now expires %s\n", got.Name,
		cli.FormatDays(inventory.DaysUntilExpiry(got, a.inv.Now())))
	return nil
}

func runUse(ctx context.Context, a *app, args []string) error {
	it, err := a.resolveItem(args[0])
	if err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid amount %q", args[1])
	}

	source := model.SourceManual
	if flagUseMeal != "" {
		source = model.SourceMealLog
	}
	got, _ := a.inv.DeductQuantity(ctx, it.ID, amount, source, flagUseMeal)

	fmt.Printf("  %s: %s left\n", got.Name, cli.FormatQuantity(got.Quantity, got.Unit))
	if got.Quantity == 0 {
		fmt.Printf("  %s\n", cli.Muted("Out of stock. It will show up on the shopping list."))
	}
	return nil
}

func runMove(ctx context.Context, a *app, args []string) error {
	it, err := a.resolveItem(args[0])
	if err != nil {
		return err
	}
	loc, err := parseLocation(args[1])
	if err != nil {
		return err
	}
	got, _ := a.inv.TransferItem(ctx, it.ID, loc)
	fmt.Printf("  Moved %s to %s\n", got.Name, got.Location)
	return nil
}

func runRemove(ctx context.Context, a *app, args []string) error {
	it, err := a.resolveItem(args[0])
	if err != nil {
		return err
	}
	a.inv.RemoveItem(ctx, it.ID, flagRemoveWhy)
	fmt.Printf("  Removed %s\n", it.Name)
	return nil
}
