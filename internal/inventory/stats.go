package inventory

import (
	"time"

	"github.com/theirongolddev/larder/internal/model"
)

const (
	expiringSoonWindow = 48 * time.Hour
	expiringWeekWindow = 7 * day
	lowStockWindow     = 7 * day
	wasteWindow        = 30 * day
)

// Stats aggregates the inventory and the ledger for the dashboard.
func (s *Store) Stats() model.InventoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	stats := model.InventoryStats{
		ByLocation: make(map[model.Location]int),
		ByCategory: make(map[model.Category]int),
	}

	for _, it := range s.items {
		stats.TotalItems++
		stats.TotalValue += it.Cost
		stats.ByLocation[it.Location]++
		stats.ByCategory[it.Category]++

		untilExpiry := it.ExpiryDate.Sub(now)
		switch {
		case untilExpiry < 0:
		case untilExpiry <= expiringSoonWindow:
			stats.ExpiringSoon++
		case untilExpiry <= expiringWeekWindow:
			stats.ExpiringThisWeek++
		}

		if !it.PredictedDepletionDate.After(now.Add(lowStockWindow)) {
			stats.LowStock++
		}
	}

	monthAgo := now.Add(-wasteWindow)
	for _, tx := range s.ledger.entries {
		if tx.Type == model.TxWaste && !tx.Timestamp.Before(monthAgo) {
			stats.WasteThisMonth++
			stats.WasteCostMonth += tx.Cost
		}
	}

	stats.AvgLifespanDays = averageLifespanDays(s.ledger.entries)
	return stats
}

// averageLifespanDays pairs each terminal remove entry with its item's
// originating add entry and averages the elapsed days.
func averageLifespanDays(entries []model.Transaction) float64 {
	added := make(map[string]time.Time)
	for _, tx := range entries {
		if tx.Type != model.TxAdd {
			continue
		}
		if _, seen := added[tx.ItemID]; !seen {
			added[tx.ItemID] = tx.Timestamp
		}
	}

	var total float64
	var pairs int
	for _, tx := range entries {
		if tx.Type != model.TxRemove || tx.NewQuantity != 0 {
			continue
		}
		start, ok := added[tx.ItemID]
		if !ok {
			continue
		}
		total += tx.Timestamp.Sub(start).Hours() / 24
		pairs++
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}
