package inventory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/larder/internal/events"
	"github.com/theirongolddev/larder/internal/model"
	"github.com/theirongolddev/larder/internal/store"
)

func TestAddItem_Defaults(t *testing.T) {
	s, clk, _ := newTestStore(t)
	item := s.AddItem(context.Background(), NewItem{Name: "  Rice "})

	assert.Equal(t, "Rice", item.Name)
	assert.Equal(t, 1.0, item.Quantity)
	assert.Equal(t, "count", item.Unit)
	assert.Equal(t, model.LocationPantry, item.Location)
	assert.Equal(t, model.CategoryOther, item.Category)
	assert.Equal(t, clk.Now().AddDate(0, 0, 7), item.ExpiryDate)
	assert.Equal(t, 0.0, item.AvgUsageRate)
	assert.Equal(t, clk.Now().AddDate(0, 0, 30), item.PredictedDepletionDate, "zero rate falls back to +30d")
	assert.Equal(t, 0.0, item.CostPerUnit)

	txs := s.Transactions(item.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, model.TxAdd, txs[0].Type)
	assert.Equal(t, 0.0, txs[0].PreviousQuantity)
	assert.Equal(t, 1.0, txs[0].NewQuantity)
	assert.Equal(t, model.SourceManual, txs[0].Source)
}

func TestAddItem_RoundTrip(t *testing.T) {
	s, clk, _ := newTestStore(t)
	expiry := clk.Now().AddDate(0, 0, 4)
	in := NewItem{
		Name:         "Greek Yogurt",
		Quantity:     Ptr(4.0),
		Unit:         "cup",
		Location:     model.LocationFridge,
		Category:     model.CategoryDairy,
		ExpiryDate:   &expiry,
		AvgUsageRate: 0.5,
		Cost:         6,
		Brand:        "Fage",
		Barcode:      "5201054017401",
		Nutrition:    &model.Nutrition{Calories: 97, Protein: 9},
		Source:       model.SourceBarcode,
	}
	added := s.AddItem(context.Background(), in)

	got, ok := s.Item(added.ID)
	require.True(t, ok)
	assert.Equal(t, added, got)
	assert.Equal(t, 1.5, got.CostPerUnit)
	assert.Equal(t, clk.Now().AddDate(0, 0, 8), got.PredictedDepletionDate)
	assert.Equal(t, model.SourceBarcode, s.Transactions(added.ID)[0].Source)

	got.Nutrition.Calories = 1
	again, _ := s.Item(added.ID)
	assert.Equal(t, 97.0, again.Nutrition.Calories, "returned items must not alias store state")
}

func TestUpdateItem_RecomputesDerivedFields(t *testing.T) {
	s, clk, _ := newTestStore(t)
	ctx := context.Background()
	item := s.AddItem(ctx, NewItem{Name: "Milk", Quantity: Ptr(2.0), Cost: 4})

	clk.Advance(time.Hour)
	updated, ok := s.UpdateItem(ctx, item.ID, ItemUpdate{Quantity: Ptr(1.0), AvgUsageRate: Ptr(0.25)})
	require.True(t, ok)
	assert.Equal(t, 4.0, updated.CostPerUnit)
	assert.Equal(t, clk.Now().AddDate(0, 0, 4), updated.PredictedDepletionDate)

	txs := s.Transactions(item.ID)
	require.Len(t, txs, 2)
	adj := txs[1]
	assert.Equal(t, model.TxAdjust, adj.Type)
	assert.Equal(t, 1.0, adj.Quantity)
	assert.Equal(t, 2.0, adj.PreviousQuantity)
	assert.Equal(t, 1.0, adj.NewQuantity)

	_, ok = s.UpdateItem(ctx, item.ID, ItemUpdate{Notes: Ptr("organic")})
	require.True(t, ok)
	assert.Len(t, s.Transactions(item.ID), 2, "non-quantity edits write no ledger entry")

	_, ok = s.UpdateItem(ctx, "missing", ItemUpdate{Notes: Ptr("x")})
	assert.False(t, ok)
}

func TestDeductQuantity_ClampsAndRecordsBoth(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	item := s.AddItem(ctx, NewItem{Name: "Eggs", Quantity: Ptr(6.0), Cost: 3})

	after, ok := s.DeductQuantity(ctx, item.ID, 2, model.SourceMealLog, "meal-42")
	require.True(t, ok)
	assert.Equal(t, 4.0, after.Quantity)

	txs := s.Transactions(item.ID)
	require.Len(t, txs, 3)
	assert.Equal(t, model.TxAdjust, txs[1].Type)
	assert.Equal(t, model.TxRemove, txs[2].Type)
	assert.Equal(t, model.SourceMealLog, txs[2].Source)
	assert.Equal(t, "meal-42", txs[2].MealID)
	assert.Equal(t, 2.0, txs[2].Quantity)
	assert.Equal(t, txs[1].Timestamp, txs[2].Timestamp)

	after, ok = s.DeductQuantity(ctx, item.ID, 10, model.SourceManual, "")
	require.True(t, ok)
	assert.Equal(t, 0.0, after.Quantity)
	assert.Equal(t, 0.0, after.CostPerUnit)
	assert.False(t, math.IsNaN(after.CostPerUnit) || math.IsInf(after.CostPerUnit, 0))
	last := s.Transactions(item.ID)[4]
	assert.Equal(t, 4.0, last.Quantity, "remove records what was actually consumed")

	_, ok = s.DeductQuantity(ctx, "missing", 1, model.SourceManual, "")
	assert.False(t, ok)
}

func TestDeductQuantity_Arithmetic(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	cases := []struct {
		start, amount, want float64
	}{
		{10, 3, 7},
		{2.5, 2.5, 0},
		{1, 4, 0},
		{5, 0, 5},
		{5, -2, 5},
	}
	for _, tc := range cases {
		item := s.AddItem(ctx, NewItem{Name: "x", Quantity: Ptr(tc.start)})
		after, ok := s.DeductQuantity(ctx, item.ID, tc.amount, model.SourceManual, "")
		require.True(t, ok)
		assert.InDelta(t, tc.want, after.Quantity, 1e-9, "start=%v amount=%v", tc.start, tc.amount)
		assert.GreaterOrEqual(t, after.Quantity, 0.0)
	}
}

func TestTransferItem(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	item := s.AddItem(ctx, NewItem{Name: "Chicken", Quantity: Ptr(2.0), Location: model.LocationFridge})

	moved, ok := s.TransferItem(ctx, item.ID, model.LocationFreezer)
	require.True(t, ok)
	assert.Equal(t, model.LocationFreezer, moved.Location)
	assert.Equal(t, 2.0, moved.Quantity)

	txs := s.Transactions(item.ID)
	require.Len(t, txs, 2)
	assert.Equal(t, model.TxTransfer, txs[1].Type)
	assert.Equal(t, "Moved from fridge to freezer", txs[1].Reason)

	_, ok = s.TransferItem(ctx, item.ID, model.Location("garage"))
	assert.False(t, ok)
	_, ok = s.TransferItem(ctx, "missing", model.LocationPantry)
	assert.False(t, ok)
}

func TestRemoveItem(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	item := s.AddItem(ctx, NewItem{Name: "Bread", Quantity: Ptr(1.0)})

	assert.True(t, s.RemoveItem(ctx, item.ID, "finished"))
	_, ok := s.Item(item.ID)
	assert.False(t, ok)
	assert.False(t, s.RemoveItem(ctx, item.ID, ""))

	txs := s.Transactions(item.ID)
	require.Len(t, txs, 2)
	assert.Equal(t, model.TxRemove, txs[1].Type)
	assert.Equal(t, 0.0, txs[1].NewQuantity)
	assert.Equal(t, "finished", txs[1].Reason)
}

func TestMarkOpened_KeepsFirstDate(t *testing.T) {
	s, clk, _ := newTestStore(t)
	ctx := context.Background()
	item := s.AddItem(ctx, NewItem{Name: "Salsa"})

	opened, ok := s.MarkOpened(ctx, item.ID)
	require.True(t, ok)
	require.NotNil(t, opened.OpenedDate)
	first := *opened.OpenedDate

	clk.Advance(48 * time.Hour)
	again, _ := s.MarkOpened(ctx, item.ID)
	assert.Equal(t, first, *again.OpenedDate)
}

func TestEvents_Published(t *testing.T) {
	bus := events.NewBus()
	clk := &fakeClock{t: epoch}
	s := Open(context.Background(), store.NewMemory(), Options{Now: clk.Now, NewID: seqIDs(), Bus: bus})

	var kinds []events.Kind
	sub := bus.Subscribe(func(ev events.Event) { kinds = append(kinds, ev.Kind()) })

	ctx := context.Background()
	item := s.AddItem(ctx, NewItem{Name: "Apples", Quantity: Ptr(5.0)})
	s.DeductQuantity(ctx, item.ID, 1, model.SourceManual, "")
	s.RemoveItem(ctx, item.ID, "")
	sub.Unsubscribe()
	s.AddItem(ctx, NewItem{Name: "Pears"})

	assert.Equal(t, []events.Kind{events.KindItemAdded, events.KindItemUpdated, events.KindItemRemoved}, kinds)
}

func TestOpen_ReloadsPersistedState(t *testing.T) {
	s, clk, mem := newTestStore(t)
	ctx := context.Background()
	item := s.AddItem(ctx, NewItem{Name: "Oats", Quantity: Ptr(3.0)})
	s.DeductQuantity(ctx, item.ID, 1, model.SourceManual, "")

	reopened := Open(ctx, mem, Options{Now: clk.Now})
	got, ok := reopened.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Quantity)
	assert.Len(t, reopened.Transactions(item.ID), 3)
}

func TestReload_PicksUpOtherWriters(t *testing.T) {
	s, clk, mem := newTestStore(t)
	ctx := context.Background()

	other := Open(ctx, mem, Options{Now: clk.Now})
	item := other.AddItem(ctx, NewItem{Name: "Rice"})
	_, ok := s.Item(item.ID)
	require.False(t, ok)

	s.Reload(ctx)
	got, ok := s.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, "Rice", got.Name)
	assert.Equal(t, 1, s.LedgerLen())
}

func TestOpen_CorruptBlobStartsEmpty(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.Set(context.Background(), store.KeyInventory, []byte("{not json")))

	s := Open(context.Background(), mem, Options{})
	assert.Empty(t, s.Items())
	assert.Equal(t, 0, s.LedgerLen())
}

func TestPersistFailureIsNotFatal(t *testing.T) {
	s, _, mem := newTestStore(t)
	mem.FailWrites = true

	item := s.AddItem(context.Background(), NewItem{Name: "Tea"})
	got, ok := s.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, "Tea", got.Name)
}

func TestQueries(t *testing.T) {
	s, clk, _ := newTestStore(t)
	ctx := context.Background()
	now := clk.Now()

	in3 := now.AddDate(0, 0, 3)
	in1 := now.AddDate(0, 0, 1)
	in20 := now.AddDate(0, 0, 20)
	s.AddItem(ctx, NewItem{Name: "Spinach", Location: model.LocationFridge, Category: model.CategoryProduce, ExpiryDate: &in3})
	s.AddItem(ctx, NewItem{Name: "Cream", Location: model.LocationFridge, Category: model.CategoryDairy, ExpiryDate: &in1})
	s.AddItem(ctx, NewItem{Name: "Flour", Category: model.CategoryGrains, ExpiryDate: &in20, AvgUsageRate: 1})
	s.AddItem(ctx, NewItem{Name: "Empty jam", Quantity: Ptr(0.0), ExpiryDate: &in1})

	fridge := s.ByLocation(model.LocationFridge)
	require.Len(t, fridge, 2)
	assert.Equal(t, "Cream", fridge[0].Name)

	assert.Len(t, s.ByCategory(model.CategoryGrains), 1)

	expiring := s.ExpiringWithin(5)
	require.Len(t, expiring, 2)
	assert.Equal(t, "Cream", expiring[0].Name)
	assert.Equal(t, "Spinach", expiring[1].Name)

	low := s.LowStockWithin(7)
	require.Len(t, low, 1, "items without a usage rate project 30 days out")
	assert.Equal(t, "Flour", low[0].Name)

	assert.Len(t, s.Search("CREAM"), 1)
}
