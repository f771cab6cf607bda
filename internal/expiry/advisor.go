// Package expiry raises escalating expiry alerts, suggests meals for
// soon-to-expire food and records waste.
package expiry

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/larder/internal/events"
	"github.com/theirongolddev/larder/internal/inventory"
	"github.com/theirongolddev/larder/internal/model"
	"github.com/theirongolddev/larder/internal/store"
)

const (
	warningDays  = 7
	criticalDays = 2

	defaultWastePeriodDays = 30
	topWasteItems          = 10
	mealsPerAlert          = 3
)

// Options configures an Advisor. Nil Now uses the inventory's clock.
type Options struct {
	Now    func() time.Time
	NewID  func() string
	Logger zerolog.Logger
}

// Advisor owns alert lifecycle and waste records. Item state stays with the
// inventory; waste removes items through it.
type Advisor struct {
	mu      sync.Mutex
	inv     *inventory.Store
	storage store.Storage
	alerts  []model.ExpiryAlert
	waste   []model.WasteRecord
	sub     *events.Subscription

	now   func() time.Time
	newID func() string
	log   zerolog.Logger
}

type snapshot struct {
	Alerts []model.ExpiryAlert `json:"alerts"`
	Waste  []model.WasteRecord `json:"waste"`
}

// Open loads alerts and waste records and subscribes to item removals.
// A missing or corrupt blob is logged and the advisor starts empty.
func Open(ctx context.Context, inv *inventory.Store, storage store.Storage, opts Options) *Advisor {
	if opts.Now == nil {
		opts.Now = inv.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	a := &Advisor{
		inv:     inv,
		storage: storage,
		now:     opts.Now,
		newID:   opts.NewID,
		log:     opts.Logger,
	}

	a.alerts, a.waste = a.load(ctx)
	a.sub = inv.Bus().Subscribe(a.onItemRemoved, events.KindItemRemoved)
	return a
}

// Reload replaces alerts and waste records with the persisted blob.
func (a *Advisor) Reload(ctx context.Context) {
	alerts, waste := a.load(ctx)
	a.mu.Lock()
	a.alerts, a.waste = alerts, waste
	a.mu.Unlock()
}

func (a *Advisor) load(ctx context.Context) ([]model.ExpiryAlert, []model.WasteRecord) {
	data, err := a.storage.Get(ctx, store.KeyExpiry)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		a.log.Error().Err(err).Str("key", store.KeyExpiry).Msg("loading alerts failed, starting empty")
	default:
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			a.log.Warn().Err(err).Str("key", store.KeyExpiry).Msg("corrupt alert blob, starting empty")
			return nil, nil
		}
		return snap.Alerts, snap.Waste
	}
	return nil, nil
}

// Close detaches the advisor from the inventory's event bus.
func (a *Advisor) Close() {
	a.sub.Unsubscribe()
}

func (a *Advisor) onItemRemoved(ev events.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.alerts[:0]
	dropped := 0
	for _, al := range a.alerts {
		if al.ItemID == ev.ItemID() && !al.Acknowledged {
			dropped++
			continue
		}
		kept = append(kept, al)
	}
	a.alerts = kept
	if dropped > 0 {
		a.persistLocked(context.Background())
	}
}

// CheckAllExpiry re-evaluates every stocked item expiring within a week.
// Existing unacknowledged alerts only ever escalate and are updated in
// place; only newly created alerts are returned.
func (a *Advisor) CheckAllExpiry(ctx context.Context) []model.ExpiryAlert {
	now := a.now()
	var candidates []model.InventoryItem
	for _, it := range a.inv.Items() {
		if it.Quantity > 0 && inventory.DaysUntilExpiry(it, now) <= warningDays {
			candidates = append(candidates, it)
		}
	}
	meals := mealsByItem(GenerateMealSuggestions(candidates))

	a.mu.Lock()
	defer a.mu.Unlock()

	var created []model.ExpiryAlert
	changed := false
	for _, it := range candidates {
		days := inventory.DaysUntilExpiry(it, now)
		target := alertTypeFor(days)

		if i := a.activeIndexLocked(it.ID); i >= 0 {
			al := &a.alerts[i]
			if target.Severity() > al.AlertType.Severity() {
				al.AlertType = target
				al.SuggestedActions = suggestedActions(it, days)
				al.MealSuggestions = mealsFor(target, meals[it.ID])
			}
			al.DaysUntilExpiry = days
			al.ItemName = it.Name
			al.UpdatedAt = now
			changed = true
			continue
		}
		al := model.ExpiryAlert{
			ID:               a.newID(),
			ItemID:           it.ID,
			ItemName:         it.Name,
			AlertType:        target,
			DaysUntilExpiry:  days,
			SuggestedActions: suggestedActions(it, days),
			MealSuggestions:  mealsFor(target, meals[it.ID]),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		a.alerts = append(a.alerts, al)
		created = append(created, cloneAlert(al))
		changed = true
	}
	if changed {
		a.persistLocked(ctx)
	}
	if len(created) > 0 {
		a.log.Info().Int("new", len(created)).Msg("expiry alerts raised")
	}
	return created
}

func alertTypeFor(days int) model.AlertType {
	switch {
	case days < 0:
		return model.AlertExpired
	case days <= criticalDays:
		return model.AlertCritical
	default:
		return model.AlertWarning
	}
}

func (a *Advisor) activeIndexLocked(itemID string) int {
	for i := range a.alerts {
		if a.alerts[i].ItemID == itemID && !a.alerts[i].Acknowledged {
			return i
		}
	}
	return -1
}

func mealsFor(t model.AlertType, names []string) []string {
	if t == model.AlertExpired || len(names) == 0 {
		return nil
	}
	return names[:min(len(names), mealsPerAlert)]
}

// AcknowledgeAlert marks the alert as seen. It returns false for an unknown id.
func (a *Advisor) AcknowledgeAlert(ctx context.Context, id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.alerts {
		if a.alerts[i].ID != id {
			continue
		}
		if !a.alerts[i].Acknowledged {
			now := a.now()
			a.alerts[i].Acknowledged = true
			a.alerts[i].AcknowledgedAt = &now
			a.alerts[i].UpdatedAt = now
			a.persistLocked(ctx)
		}
		return true
	}
	return false
}

// ActiveAlerts returns unacknowledged alerts, most severe first.
func (a *Advisor) ActiveAlerts() []model.ExpiryAlert {
	a.mu.Lock()
	var out []model.ExpiryAlert
	for _, al := range a.alerts {
		if !al.Acknowledged {
			out = append(out, cloneAlert(al))
		}
	}
	a.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].AlertType.Severity(), out[j].AlertType.Severity()
		if si != sj {
			return si > sj
		}
		return out[i].DaysUntilExpiry < out[j].DaysUntilExpiry
	})
	return out
}

// Alerts returns every alert, including acknowledged ones, oldest first.
func (a *Advisor) Alerts() []model.ExpiryAlert {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.ExpiryAlert, len(a.alerts))
	for i, al := range a.alerts {
		out[i] = cloneAlert(al)
	}
	return out
}

func (a *Advisor) persistLocked(ctx context.Context) {
	data, err := json.Marshal(snapshot{Alerts: a.alerts, Waste: a.waste})
	if err != nil {
		a.log.Error().Err(err).Msg("encoding alert snapshot")
		return
	}
	if err := a.storage.Set(ctx, store.KeyExpiry, data); err != nil {
		a.log.Error().Err(err).Str("key", store.KeyExpiry).Msg("persisting alerts failed")
	}
}

func cloneAlert(al model.ExpiryAlert) model.ExpiryAlert {
	al.SuggestedActions = append([]string(nil), al.SuggestedActions...)
	if al.MealSuggestions != nil {
		al.MealSuggestions = append([]string(nil), al.MealSuggestions...)
	}
	if al.AcknowledgedAt != nil {
		t := *al.AcknowledgedAt
		al.AcknowledgedAt = &t
	}
	return al
}
