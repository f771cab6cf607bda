package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/larder/internal/expiry"
	"github.com/theirongolddev/larder/internal/model"
)

var (
	flagMealsDays int
	flagMealsAll  bool
)

var mealsCmd = &cobra.Command{
	Use:   "meals",
	Short: "Suggest meals that use up expiring items",
	RunE:  withApp(runMeals),
}

func init() {
	mealsCmd.Flags().IntVarP(&flagMealsDays, "days", "n", 7, "Consider items expiring within this many days")
	mealsCmd.Flags().BoolVarP(&flagMealsAll, "all", "a", false, "Consider every stocked item")
	rootCmd.AddCommand(mealsCmd)
}

func runMeals(_ context.Context, a *app, _ []string) error {
	items := a.inv.ExpiringWithin(flagMealsDays)
	if flagMealsAll {
		items = a.inv.Items()
	}
	suggestions := expiry.GenerateMealSuggestions(items)
	if len(suggestions) == 0 {
		fmt.Println("\n  No meal ideas for what's on hand.")
		return nil
	}

	byID := make(map[string]model.InventoryItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	fmt.Println()
	for _, s := range suggestions {
		names := make([]string, 0, len(s.ItemIDs))
		for _, id := range s.ItemIDs {
			names = append(names, byID[id].Name)
		}
		matched := make([]string, len(s.Matched))
		for i, ing := range s.Matched {
			matched[i] = string(ing)
		}
		fmt.Printf("  %s  (%d ingredients: %s)\n", s.Name, s.MatchCount, strings.Join(matched, ", "))
		fmt.Printf("      uses %s\n\n", strings.Join(names, ", "))
	}
	return nil
}
