package expiry

import (
	"context"
	"sort"
	"strings"

	"github.com/theirongolddev/larder/internal/model"
)

// RecordWaste writes a waste record for the item's remaining stock and
// removes it from the inventory. It returns false if the item is unknown.
func (a *Advisor) RecordWaste(ctx context.Context, itemID string, reason model.WasteReason, notes string) (model.WasteRecord, bool) {
	item, ok := a.inv.Item(itemID)
	if !ok {
		return model.WasteRecord{}, false
	}
	if !reason.Valid() {
		reason = model.WasteOther
	}

	rec := model.WasteRecord{
		ID:          a.newID(),
		ItemID:      item.ID,
		ItemName:    item.Name,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
		Cost:        item.CostPerUnit * item.Quantity,
		Reason:      reason,
		WastedAt:    a.now(),
		Preventable: reason.Preventable(),
		Notes:       strings.TrimSpace(notes),
	}

	a.inv.RecordWasteEntry(ctx, item.ID, rec.Cost, reason)
	a.inv.RemoveItem(ctx, item.ID, string(reason))

	a.mu.Lock()
	a.waste = append(a.waste, rec)
	a.persistLocked(ctx)
	a.mu.Unlock()

	a.log.Info().Str("item", item.Name).Str("reason", string(reason)).Float64("cost", rec.Cost).Msg("waste recorded")
	return rec, true
}

// WasteRecords returns every waste record, oldest first.
func (a *Advisor) WasteRecords() []model.WasteRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.WasteRecord(nil), a.waste...)
}

// WasteStats summarizes waste over the trailing periodDays (30 when <= 0).
func (a *Advisor) WasteStats(periodDays int) model.WasteStats {
	if periodDays <= 0 {
		periodDays = defaultWastePeriodDays
	}
	since := a.now().AddDate(0, 0, -periodDays)

	stats := model.WasteStats{
		PeriodDays: periodDays,
		ByReason:   make(map[model.WasteReason]model.ReasonStats),
		TopItems:   []model.ItemWaste{},
	}
	byName := make(map[string]*model.ItemWaste)
	preventable := 0

	a.mu.Lock()
	for _, rec := range a.waste {
		if rec.WastedAt.Before(since) {
			continue
		}
		stats.TotalCount++
		stats.TotalCost += rec.Cost
		rs := stats.ByReason[rec.Reason]
		rs.Count++
		rs.Cost += rec.Cost
		stats.ByReason[rec.Reason] = rs
		if rec.Preventable {
			preventable++
		}

		iw, ok := byName[rec.ItemName]
		if !ok {
			iw = &model.ItemWaste{Name: rec.ItemName}
			byName[rec.ItemName] = iw
		}
		iw.Count++
		iw.Cost += rec.Cost
	}
	a.mu.Unlock()

	for _, iw := range byName {
		stats.TopItems = append(stats.TopItems, *iw)
	}
	sort.Slice(stats.TopItems, func(i, j int) bool {
		if stats.TopItems[i].Cost != stats.TopItems[j].Cost {
			return stats.TopItems[i].Cost > stats.TopItems[j].Cost
		}
		return stats.TopItems[i].Name < stats.TopItems[j].Name
	})
	if len(stats.TopItems) > topWasteItems {
		stats.TopItems = stats.TopItems[:topWasteItems]
	}
	if stats.TotalCount > 0 {
		stats.PreventablePercent = float64(preventable) / float64(stats.TotalCount)
	}
	return stats
}
