package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/larder/internal/inventory"
	"github.com/theirongolddev/larder/internal/model"
)

func TestGenerateShoppingList_FastDepletionFirst(t *testing.T) {
	inv, f, _ := setup(t)
	ctx := context.Background()
	far := epoch.AddDate(0, 1, 0)
	inv.AddItem(ctx, inventory.NewItem{Name: "Apples", Quantity: inventory.Ptr(10.0), AvgUsageRate: 1, ExpiryDate: &far})
	inv.AddItem(ctx, inventory.NewItem{Name: "Zucchini", Quantity: inventory.Ptr(1.0), AvgUsageRate: 1, ExpiryDate: &far})

	list := f.GenerateShoppingList()
	require.Len(t, list, 2)
	assert.Equal(t, "Zucchini", list[0].Name)
	assert.Equal(t, model.PriorityHigh, list[0].Priority)
	assert.Equal(t, model.ReasonLowStock, list[0].Reason)
	assert.Equal(t, "Apples", list[1].Name)
	assert.Equal(t, model.PriorityLow, list[1].Priority)
}

func TestGenerateShoppingList_Rules(t *testing.T) {
	inv, f, clk := setup(t)
	ctx := context.Background()
	now := clk.Now()
	far := now.AddDate(0, 2, 0)
	tomorrow := now.Add(24 * time.Hour)

	inv.AddItem(ctx, inventory.NewItem{Name: "Eggs", Quantity: inventory.Ptr(0.0), ExpiryDate: &far, Cost: 3})
	inv.AddItem(ctx, inventory.NewItem{Name: "Butter", Quantity: inventory.Ptr(5.0), AvgUsageRate: 1, ExpiryDate: &far})
	inv.AddItem(ctx, inventory.NewItem{Name: "Cream", Quantity: inventory.Ptr(10.0), ExpiryDate: &tomorrow})
	inv.AddItem(ctx, inventory.NewItem{Name: "Honey", Quantity: inventory.Ptr(10.0), ExpiryDate: &far})
	inv.AddItem(ctx, inventory.NewItem{Name: "Bread", Quantity: inventory.Ptr(2.0), AvgUsageRate: 1, ExpiryDate: &tomorrow, Cost: 4})

	list := f.GenerateShoppingList()
	names := make([]string, len(list))
	for i, item := range list {
		names[i] = item.Name
	}
	assert.Equal(t, []string{"Eggs", "Bread", "Butter", "Cream"}, names, "honey has abundant supply")

	byName := map[string]model.ShoppingListItem{}
	for _, item := range list {
		byName[item.Name] = item
	}
	assert.Equal(t, model.ReasonDepleted, byName["Eggs"].Reason)
	assert.Equal(t, model.PriorityUrgent, byName["Eggs"].Priority)
	assert.Equal(t, model.ReasonLowStock, byName["Bread"].Reason, "expiry never downgrades a higher priority")
	assert.Equal(t, model.ReasonPredictedDepletion, byName["Butter"].Reason)
	assert.Equal(t, model.PriorityMedium, byName["Cream"].Priority)
	assert.Equal(t, model.ReasonExpiring, byName["Cream"].Reason)

	assert.Equal(t, 14.0, byName["Bread"].SuggestedQuantity)
	assert.InDelta(t, 28.0, byName["Bread"].EstimatedCost, 1e-9)
	assert.Equal(t, now, byName["Bread"].AddedAt)
}

func TestGenerateShoppingList_Ordering(t *testing.T) {
	inv, f, _ := setup(t)
	ctx := context.Background()
	far := epoch.AddDate(0, 2, 0)
	for _, tc := range []struct {
		name string
		qty  float64
	}{{"d", 0}, {"b", 2}, {"a", 6}, {"c", 0}, {"e", 2}, {"f", 10}} {
		inv.AddItem(ctx, inventory.NewItem{Name: tc.name, Quantity: inventory.Ptr(tc.qty), AvgUsageRate: 1, ExpiryDate: &far})
	}

	list := f.GenerateShoppingList()
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		if prev.Priority.Rank() == cur.Priority.Rank() {
			assert.Less(t, prev.Name, cur.Name)
		} else {
			assert.Greater(t, prev.Priority.Rank(), cur.Priority.Rank())
		}
	}
}

func TestBulkBuyingRecommendations(t *testing.T) {
	inv, f, clk := setup(t)
	ctx := context.Background()

	oil := inv.AddItem(ctx, inventory.NewItem{Name: "Oil", Quantity: inventory.Ptr(10.0), Cost: 20})
	consumeDaily(t, inv, clk, oil.ID, 1, 1, 1, 1, 1)
	free := inv.AddItem(ctx, inventory.NewItem{Name: "Tap water", Quantity: inventory.Ptr(100.0)})
	consumeDaily(t, inv, clk, free.ID, 2, 2, 2, 2)
	inv.AddItem(ctx, inventory.NewItem{Name: "Guess", Quantity: inventory.Ptr(50.0), AvgUsageRate: 5, Cost: 50})

	recs := f.BulkBuyingRecommendations()
	require.Len(t, recs, 1, "free items save nothing; sparse forecasts lack confidence")
	rec := recs[0]
	assert.Equal(t, "Oil", rec.ItemName)
	assert.InDelta(t, 30.0, rec.MonthlyUsage, 1e-9)
	assert.InDelta(t, 60.0, rec.BulkQuantity, 1e-9)
	assert.InDelta(t, 240.0, rec.RegularCost, 1e-9)
	assert.InDelta(t, 192.0, rec.BulkCost, 1e-9)
	assert.InDelta(t, 48.0, rec.Savings, 1e-9)
}
