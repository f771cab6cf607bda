package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/larder/internal/cli"
	"github.com/theirongolddev/larder/internal/inventory"
	"github.com/theirongolddev/larder/internal/lookup"
)

var (
	flagScanAdd bool
	flagScanQty float64
)

var scanCmd = &cobra.Command{
	Use:   "scan BARCODE",
	Short: "Look up a barcode and optionally add the product",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runScan),
}

func init() {
	scanCmd.Flags().BoolVar(&flagScanAdd, "add", false, "Add the product to the inventory")
	scanCmd.Flags().Float64Var(&flagScanQty, "qty", 0, "Override the package quantity")
	rootCmd.AddCommand(scanCmd)
}

func runScan(ctx context.Context, a *app, args []string) error {
	if _, ok := lookup.NormalizeBarcode(args[0]); !ok {
		return fmt.Errorf("%q is not a barcode (need at least 8 digits)", args[0])
	}
	if a.cfg.Lookup.Disabled {
		progressf("  Catalog lookups are disabled; only cached products resolve\n")
	} else {
		progressf("  Looking up %s...\n", args[0])
	}

	res := a.lookup.Lookup(ctx, args[0])
	if !res.Found {
		return errors.New("product not found; add it by hand with `larder add`")
	}
	p := res.Product

	rows := [][]string{
		{"Barcode", p.Barcode},
		{"Name", p.Name},
		{"Brand", p.Brand},
		{"Category", string(p.Category)},
		{"Package", cli.FormatQuantity(p.Quantity, p.Unit)},
	}
	if n := p.Nutrition; n != nil {
		rows = append(rows, []string{"Per 100g", fmt.Sprintf("%.0f kcal, %.1fg protein, %.1fg carbs, %.1fg fat", n.Calories, n.Protein, n.Carbs, n.Fat)})
	}
	title := "Product"
	if res.Cached {
		title += " (cached)"
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: title, Headers: []string{"Field", "Value"}, Rows: rows, LeftCols: 2}))

	if !flagScanAdd {
		return nil
	}
	in := p.NewItem(a.inv.Now())
	if flagScanQty > 0 {
		in.Quantity = inventory.Ptr(flagScanQty)
	}
	item := a.inv.AddItem(ctx, in)
	fmt.Printf("  Added %s to %s, expires %s\n", item.Name, item.Location,
		cli.FormatDays(inventory.DaysUntilExpiry(item, a.inv.Now())))
	return nil
}
