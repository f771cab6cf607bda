// Package inventory owns the current item state and the transaction ledger
// that records every quantity-affecting change.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/larder/internal/events"
	"github.com/theirongolddev/larder/internal/model"
	"github.com/theirongolddev/larder/internal/store"
)

const (
	defaultShelfLifeDays = 7
	defaultUnit          = "count"
)

// Options configures a Store.
type Options struct {
	Now       func() time.Time
	NewID     func() string
	Logger    zerolog.Logger
	Bus       *events.Bus
	Retention int
}

// Store is the single source of truth for item quantities and freshness.
type Store struct {
	mu        sync.RWMutex
	storage   store.Storage
	items     map[string]model.InventoryItem
	ledger    *Ledger
	retention int

	bus   *events.Bus
	now   func() time.Time
	newID func() string
	log   zerolog.Logger
}

type snapshot struct {
	Items        []model.InventoryItem `json:"items"`
	Transactions []model.Transaction   `json:"transactions"`
}

// Open loads persisted state from storage. A missing or corrupt blob is
// logged and the store starts empty.
func Open(ctx context.Context, storage store.Storage, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}

	s := &Store{
		storage:   storage,
		bus:       opts.Bus,
		now:       opts.Now,
		newID:     opts.NewID,
		log:       opts.Logger,
		retention: opts.Retention,
	}
	s.items, s.ledger = s.load(ctx)
	return s
}

// Reload replaces in-memory state with the persisted blob, picking up
// writes made by other processes sharing the database.
func (s *Store) Reload(ctx context.Context) {
	items, ledger := s.load(ctx)
	s.mu.Lock()
	s.items, s.ledger = items, ledger
	s.mu.Unlock()
}

func (s *Store) load(ctx context.Context) (map[string]model.InventoryItem, *Ledger) {
	var snap snapshot
	data, err := s.storage.Get(ctx, store.KeyInventory)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		s.log.Error().Err(err).Str("key", store.KeyInventory).Msg("loading inventory failed, starting empty")
	default:
		if err := json.Unmarshal(data, &snap); err != nil {
			s.log.Warn().Err(err).Str("key", store.KeyInventory).Msg("corrupt inventory blob, starting empty")
			snap = snapshot{}
		}
	}

	items := make(map[string]model.InventoryItem, len(snap.Items))
	for _, item := range snap.Items {
		items[item.ID] = item
	}
	return items, NewLedger(s.retention, snap.Transactions)
}

// Bus returns the event bus the store publishes to.
func (s *Store) Bus() *events.Bus {
	return s.bus
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

// NewItem enumerates every field accepted by AddItem. Zero values and nil
// pointers take the documented defaults.
type NewItem struct {
	Name         string
	Quantity     *float64 // default 1
	Unit         string   // default "count"
	Location     model.Location
	Category     model.Category
	PurchaseDate *time.Time // default now
	ExpiryDate   *time.Time // default now+7d
	OpenedDate   *time.Time
	AvgUsageRate float64
	Cost         float64

	Barcode   string
	Brand     string
	Notes     string
	ImageURL  string
	Nutrition *model.Nutrition

	IsLeftover   bool
	SourceMealID string

	Source model.TransactionSource // default manual
}

// ItemUpdate lists optional changes; nil fields are left untouched.
type ItemUpdate struct {
	Name         *string
	Quantity     *float64
	Unit         *string
	Location     *model.Location
	Category     *model.Category
	PurchaseDate *time.Time
	ExpiryDate   *time.Time
	OpenedDate   *time.Time
	ClearOpened  bool
	AvgUsageRate *float64
	Cost         *float64
	Barcode      *string
	Brand        *string
	Notes        *string
	ImageURL     *string
	Nutrition    *model.Nutrition
	IsLeftover   *bool

	// Reason and Source annotate the adjust transaction written when
	// Quantity changes.
	Reason string
	Source model.TransactionSource
}

// Ptr returns a pointer to v, for filling NewItem and ItemUpdate literals.
func Ptr[T any](v T) *T {
	return &v
}

// AddItem stores a new item and appends its originating add transaction.
func (s *Store) AddItem(ctx context.Context, in NewItem) model.InventoryItem {
	s.mu.Lock()
	now := s.now()

	item := model.InventoryItem{
		ID:           s.newID(),
		Name:         strings.TrimSpace(in.Name),
		Quantity:     1,
		Unit:         in.Unit,
		Location:     in.Location,
		Category:     in.Category,
		PurchaseDate: now,
		ExpiryDate:   now.AddDate(0, 0, defaultShelfLifeDays),
		AvgUsageRate: max(0, in.AvgUsageRate),
		Cost:         max(0, in.Cost),
		Barcode:      in.Barcode,
		Brand:        in.Brand,
		Notes:        in.Notes,
		ImageURL:     in.ImageURL,
		Nutrition:    cloneNutrition(in.Nutrition),
		IsLeftover:   in.IsLeftover,
		SourceMealID: in.SourceMealID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Quantity != nil {
		item.Quantity = max(0, *in.Quantity)
	}
	if item.Unit == "" {
		item.Unit = defaultUnit
	}
	if item.Location == "" {
		item.Location = model.LocationPantry
	}
	if item.Category == "" {
		item.Category = model.CategoryOther
	}
	if in.PurchaseDate != nil {
		item.PurchaseDate = *in.PurchaseDate
	}
	if in.ExpiryDate != nil {
		item.ExpiryDate = *in.ExpiryDate
	}
	if in.OpenedDate != nil {
		opened := *in.OpenedDate
		item.OpenedDate = &opened
	}
	item.PredictedDepletionDate = DepletionDate(item.Quantity, item.AvgUsageRate, now)
	item.CostPerUnit = CostPerUnit(item.Cost, item.Quantity)

	source := in.Source
	if !source.Valid() {
		source = model.SourceManual
	}

	s.items[item.ID] = item
	s.ledger.Append(model.Transaction{
		ID:               s.newID(),
		ItemID:           item.ID,
		Type:             model.TxAdd,
		Quantity:         item.Quantity,
		PreviousQuantity: 0,
		NewQuantity:      item.Quantity,
		Reason:           "Added to inventory",
		Source:           source,
		Timestamp:        now,
	})
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.bus.Publish(events.ItemAdded{Item: cloneItem(item)})
	return cloneItem(item)
}

// UpdateItem merges upd into the item. It returns false if id is unknown.
func (s *Store) UpdateItem(ctx context.Context, id string, upd ItemUpdate) (model.InventoryItem, bool) {
	s.mu.Lock()
	prev, item, ok := s.updateLocked(id, upd, s.now())
	if ok {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	if !ok {
		return model.InventoryItem{}, false
	}
	s.bus.Publish(events.ItemUpdated{Previous: prev, Item: cloneItem(item)})
	return cloneItem(item), true
}

func (s *Store) updateLocked(id string, upd ItemUpdate, now time.Time) (prev, item model.InventoryItem, ok bool) {
	item, ok = s.items[id]
	if !ok {
		return model.InventoryItem{}, model.InventoryItem{}, false
	}
	prev = cloneItem(item)

	if upd.Name != nil {
		item.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Unit != nil && *upd.Unit != "" {
		item.Unit = *upd.Unit
	}
	if upd.Location != nil && upd.Location.Valid() {
		item.Location = *upd.Location
	}
	if upd.Category != nil && upd.Category.Valid() {
		item.Category = *upd.Category
	}
	if upd.PurchaseDate != nil {
		item.PurchaseDate = *upd.PurchaseDate
	}
	if upd.ExpiryDate != nil {
		item.ExpiryDate = *upd.ExpiryDate
	}
	if upd.ClearOpened {
		item.OpenedDate = nil
	}
	if upd.OpenedDate != nil {
		opened := *upd.OpenedDate
		item.OpenedDate = &opened
	}
	if upd.Barcode != nil {
		item.Barcode = *upd.Barcode
	}
	if upd.Brand != nil {
		item.Brand = *upd.Brand
	}
	if upd.Notes != nil {
		item.Notes = *upd.Notes
	}
	if upd.ImageURL != nil {
		item.ImageURL = *upd.ImageURL
	}
	if upd.Nutrition != nil {
		item.Nutrition = cloneNutrition(upd.Nutrition)
	}
	if upd.IsLeftover != nil {
		item.IsLeftover = *upd.IsLeftover
	}

	quantityChanged := false
	if upd.Quantity != nil {
		q := max(0, *upd.Quantity)
		quantityChanged = q != item.Quantity
		item.Quantity = q
	}
	rateChanged := false
	if upd.AvgUsageRate != nil {
		r := max(0, *upd.AvgUsageRate)
		rateChanged = r != item.AvgUsageRate
		item.AvgUsageRate = r
	}
	costChanged := false
	if upd.Cost != nil {
		c := max(0, *upd.Cost)
		costChanged = c != item.Cost
		item.Cost = c
	}

	if quantityChanged || rateChanged {
		item.PredictedDepletionDate = DepletionDate(item.Quantity, item.AvgUsageRate, now)
	}
	if quantityChanged || costChanged {
		item.CostPerUnit = CostPerUnit(item.Cost, item.Quantity)
	}
	item.UpdatedAt = now
	s.items[id] = item

	if quantityChanged {
		source := upd.Source
		if !source.Valid() {
			source = model.SourceManual
		}
		reason := upd.Reason
		if reason == "" {
			reason = "Quantity adjusted"
		}
		delta := item.Quantity - prev.Quantity
		if delta < 0 {
			delta = -delta
		}
		s.ledger.Append(model.Transaction{
			ID:               s.newID(),
			ItemID:           id,
			Type:             model.TxAdjust,
			Quantity:         delta,
			PreviousQuantity: prev.Quantity,
			NewQuantity:      item.Quantity,
			Reason:           reason,
			Source:           source,
			Timestamp:        now,
		})
	}
	return prev, item, true
}

// RemoveItem deletes the item, recording its final quantity going to zero.
func (s *Store) RemoveItem(ctx context.Context, id, reason string) bool {
	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if reason == "" {
		reason = "Removed from inventory"
	}
	s.ledger.Append(model.Transaction{
		ID:               s.newID(),
		ItemID:           id,
		Type:             model.TxRemove,
		Quantity:         item.Quantity,
		PreviousQuantity: item.Quantity,
		NewQuantity:      0,
		Reason:           reason,
		Source:           model.SourceManual,
		Timestamp:        s.now(),
	})
	delete(s.items, id)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.bus.Publish(events.ItemRemoved{Item: item, Reason: reason})
	return true
}

// DeductQuantity consumes amount from the item, clamping at zero. Besides
// the adjust entry written by the update, a remove entry tagged with source
// and mealID is appended for the consumption audit trail.
func (s *Store) DeductQuantity(ctx context.Context, id string, amount float64, source model.TransactionSource, mealID string) (model.InventoryItem, bool) {
	if !source.Valid() {
		source = model.SourceManual
	}
	amount = max(0, amount)

	s.mu.Lock()
	current, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return model.InventoryItem{}, false
	}
	now := s.now()
	newQuantity := max(0, current.Quantity-amount)

	prev, item, _ := s.updateLocked(id, ItemUpdate{
		Quantity: &newQuantity,
		Reason:   "Deducted",
		Source:   source,
	}, now)

	reason := "Used"
	if mealID != "" {
		reason = "Used in meal"
	}
	s.ledger.Append(model.Transaction{
		ID:               s.newID(),
		ItemID:           id,
		Type:             model.TxRemove,
		Quantity:         prev.Quantity - item.Quantity,
		PreviousQuantity: prev.Quantity,
		NewQuantity:      item.Quantity,
		Reason:           reason,
		MealID:           mealID,
		Source:           source,
		Timestamp:        now,
	})
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.bus.Publish(events.ItemUpdated{Previous: prev, Item: cloneItem(item)})
	return cloneItem(item), true
}

// TransferItem moves the item to a new location; quantity is unchanged.
func (s *Store) TransferItem(ctx context.Context, id string, to model.Location) (model.InventoryItem, bool) {
	s.mu.Lock()
	current, ok := s.items[id]
	if !ok || !to.Valid() {
		s.mu.Unlock()
		return model.InventoryItem{}, false
	}
	now := s.now()
	from := current.Location

	prev, item, _ := s.updateLocked(id, ItemUpdate{Location: &to}, now)
	s.ledger.Append(model.Transaction{
		ID:               s.newID(),
		ItemID:           id,
		Type:             model.TxTransfer,
		Quantity:         0,
		PreviousQuantity: item.Quantity,
		NewQuantity:      item.Quantity,
		Reason:           fmt.Sprintf("Moved from %s to %s", from, to),
		Source:           model.SourceManual,
		Timestamp:        now,
	})
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.bus.Publish(events.ItemUpdated{Previous: prev, Item: cloneItem(item)})
	return cloneItem(item), true
}

// MarkOpened stamps the opened date with the current time. An item that is
// already open keeps its original date.
func (s *Store) MarkOpened(ctx context.Context, id string) (model.InventoryItem, bool) {
	item, ok := s.Item(id)
	if !ok || item.OpenedDate != nil {
		return item, ok
	}
	now := s.now()
	return s.UpdateItem(ctx, id, ItemUpdate{OpenedDate: &now})
}

// RecordWasteEntry appends a waste ledger entry for the item's current
// quantity. The item itself is left in place; callers remove it afterwards.
func (s *Store) RecordWasteEntry(ctx context.Context, id string, cost float64, reason model.WasteReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return false
	}
	s.ledger.Append(model.Transaction{
		ID:               s.newID(),
		ItemID:           id,
		Type:             model.TxWaste,
		Quantity:         item.Quantity,
		PreviousQuantity: item.Quantity,
		NewQuantity:      0,
		Reason:           string(reason),
		Source:           model.SourceManual,
		Cost:             max(0, cost),
		Timestamp:        s.now(),
	})
	s.persistLocked(ctx)
	return true
}

// Item returns the item with the given id.
func (s *Store) Item(id string) (model.InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return model.InventoryItem{}, false
	}
	return cloneItem(item), true
}

// Items returns every item sorted by name.
func (s *Store) Items() []model.InventoryItem {
	return s.filter(func(model.InventoryItem) bool { return true }, byName)
}

// ByLocation returns items stored at loc.
func (s *Store) ByLocation(loc model.Location) []model.InventoryItem {
	return s.filter(func(it model.InventoryItem) bool { return it.Location == loc }, byName)
}

// ByCategory returns items in cat.
func (s *Store) ByCategory(cat model.Category) []model.InventoryItem {
	return s.filter(func(it model.InventoryItem) bool { return it.Category == cat }, byName)
}

// Search returns items whose name or brand contains q, case-insensitively.
func (s *Store) Search(q string) []model.InventoryItem {
	q = strings.ToLower(strings.TrimSpace(q))
	return s.filter(func(it model.InventoryItem) bool {
		return strings.Contains(strings.ToLower(it.Name), q) ||
			strings.Contains(strings.ToLower(it.Brand), q)
	}, byName)
}

// ExpiringWithin returns in-stock items expiring within days, soonest first.
func (s *Store) ExpiringWithin(days int) []model.InventoryItem {
	cutoff := s.now().AddDate(0, 0, days)
	return s.filter(func(it model.InventoryItem) bool {
		return it.Quantity > 0 && !it.ExpiryDate.After(cutoff)
	}, func(a, b model.InventoryItem) bool { return a.ExpiryDate.Before(b.ExpiryDate) })
}

// LowStockWithin returns items predicted to run out within days, soonest first.
func (s *Store) LowStockWithin(days int) []model.InventoryItem {
	cutoff := s.now().AddDate(0, 0, days)
	return s.filter(func(it model.InventoryItem) bool {
		return !it.PredictedDepletionDate.After(cutoff)
	}, func(a, b model.InventoryItem) bool { return a.PredictedDepletionDate.Before(b.PredictedDepletionDate) })
}

// Transactions returns the ledger entries for itemID in chronological order.
func (s *Store) Transactions(itemID string) []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.ForItem(itemID)
}

// TransactionsBetween returns ledger entries in [since, until).
func (s *Store) TransactionsBetween(since, until time.Time) []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Between(since, until)
}

// LedgerLen returns the number of retained ledger entries.
func (s *Store) LedgerLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Len()
}

func byName(a, b model.InventoryItem) bool {
	if !strings.EqualFold(a.Name, b.Name) {
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}
	return a.ID < b.ID
}

func (s *Store) filter(keep func(model.InventoryItem) bool, less func(a, b model.InventoryItem) bool) []model.InventoryItem {
	s.mu.RLock()
	out := make([]model.InventoryItem, 0, len(s.items))
	for _, it := range s.items {
		if keep(it) {
			out = append(out, cloneItem(it))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// persistLocked writes items and ledger together under one key. Failures
// are logged; durability is best-effort.
func (s *Store) persistLocked(ctx context.Context) {
	snap := snapshot{
		Items:        make([]model.InventoryItem, 0, len(s.items)),
		Transactions: s.ledger.All(),
	}
	for _, it := range s.items {
		snap.Items = append(snap.Items, it)
	}
	sort.Slice(snap.Items, func(i, j int) bool { return snap.Items[i].ID < snap.Items[j].ID })

	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Error().Err(err).Msg("encoding inventory snapshot")
		return
	}
	if err := s.storage.Set(ctx, store.KeyInventory, data); err != nil {
		s.log.Error().Err(err).Str("key", store.KeyInventory).Msg("persisting inventory failed")
	}
}

func cloneItem(it model.InventoryItem) model.InventoryItem {
	if it.OpenedDate != nil {
		opened := *it.OpenedDate
		it.OpenedDate = &opened
	}
	it.Nutrition = cloneNutrition(it.Nutrition)
	return it
}

func cloneNutrition(n *model.Nutrition) *model.Nutrition {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}
