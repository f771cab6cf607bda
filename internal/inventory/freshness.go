package inventory

import (
	"math"
	"time"

	"github.com/theirongolddev/larder/internal/model"
)

const (
	day = 24 * time.Hour

	// openedShelfLifeDays caps remaining life once a package is opened.
	openedShelfLifeDays = 7

	// noRateDepletionDays is used when no usage rate is known.
	noRateDepletionDays = 30
)

func floorDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

// DaysUntilExpiry returns whole days until the item expires. Opening an item
// can only shorten that, never extend it.
func DaysUntilExpiry(item model.InventoryItem, now time.Time) int {
	days := floorDays(item.ExpiryDate.Sub(now))
	if item.OpenedDate != nil {
		sinceOpened := floorDays(now.Sub(*item.OpenedDate))
		days = min(days, max(0, openedShelfLifeDays-sinceOpened))
	}
	return days
}

// FreshnessOf buckets remaining days: <0 expired, <=1 expiring, <=3 use soon, <=7 good.
func FreshnessOf(item model.InventoryItem, now time.Time) model.Freshness {
	days := DaysUntilExpiry(item, now)
	switch {
	case days < 0:
		return model.FreshnessExpired
	case days <= 1:
		return model.FreshnessExpiring
	case days <= 3:
		return model.FreshnessUseSoon
	case days <= 7:
		return model.FreshnessGood
	default:
		return model.FreshnessFresh
	}
}

// DepletionDate projects when quantity runs out at rate units/day.
// A non-positive rate falls back to 30 days out.
func DepletionDate(quantity, rate float64, now time.Time) time.Time {
	if rate <= 0 {
		return now.AddDate(0, 0, noRateDepletionDays)
	}
	return now.AddDate(0, 0, int(math.Ceil(quantity/rate)))
}

// CostPerUnit is cost/quantity, or 0 when there is nothing left.
func CostPerUnit(cost, quantity float64) float64 {
	if quantity <= 0 {
		return 0
	}
	return cost / quantity
}
