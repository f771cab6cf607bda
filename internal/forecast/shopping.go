package forecast

import (
	"sort"
	"time"

	"github.com/theirongolddev/larder/internal/model"
)

const (
	day = 24 * time.Hour

	highHorizon      = 3 * day
	mediumHorizon    = 7 * day
	expiringHorizon  = 2 * day
	inclusionHorizon = 14 * day

	bulkMinConfidence   = 0.6
	bulkMinMonthlyUsage = 10.0
	bulkMonths          = 2
	bulkDiscount        = 0.20
	bulkMinSavings      = 5.0
)

// GenerateShoppingList ranks items that need restocking: priority
// descending, then name ascending.
func (f *Forecaster) GenerateShoppingList() []model.ShoppingListItem {
	now := f.now()
	var list []model.ShoppingListItem

	for _, p := range f.PredictAllUsage() {
		item, ok := f.inv.Item(p.ItemID)
		if !ok {
			continue
		}
		priority, reason := depletionPriority(p.PredictedDepletionDate, now)

		if priority == model.PriorityLow && item.Quantity > 0 && !item.ExpiryDate.After(now.Add(expiringHorizon)) {
			priority, reason = model.PriorityMedium, model.ReasonExpiring
		}
		if priority == model.PriorityLow && p.PredictedDepletionDate.After(now.Add(inclusionHorizon)) {
			continue
		}

		qty := max(1, p.SuggestedReorderQuantity)
		unitCost := item.CostPerUnit
		if unitCost == 0 && item.Quantity == 0 {
			unitCost = item.Cost
		}
		list = append(list, model.ShoppingListItem{
			ItemID:            item.ID,
			Name:              item.Name,
			SuggestedQuantity: qty,
			Unit:              item.Unit,
			Priority:          priority,
			Reason:            reason,
			EstimatedCost:     unitCost * qty,
			AddedAt:           now,
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := list[i].Priority.Rank(), list[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return list[i].Name < list[j].Name
	})
	return list
}

func depletionPriority(depletion, now time.Time) (model.Priority, model.ShoppingReason) {
	switch {
	case !depletion.After(now):
		return model.PriorityUrgent, model.ReasonDepleted
	case !depletion.After(now.Add(highHorizon)):
		return model.PriorityHigh, model.ReasonLowStock
	case !depletion.After(now.Add(mediumHorizon)):
		return model.PriorityMedium, model.ReasonPredictedDepletion
	default:
		return model.PriorityLow, model.ReasonPredictedDepletion
	}
}

// BulkBuyingRecommendations suggests two months' supply at a 20% discount
// for confidently forecast, high-usage items. Largest savings first.
func (f *Forecaster) BulkBuyingRecommendations() []model.BulkRecommendation {
	var recs []model.BulkRecommendation
	for _, p := range f.PredictAllUsage() {
		monthly := p.DailyUsageRate * 30
		if p.ConfidenceScore <= bulkMinConfidence || monthly <= bulkMinMonthlyUsage {
			continue
		}
		item, ok := f.inv.Item(p.ItemID)
		if !ok {
			continue
		}
		bulkQty := monthly * bulkMonths
		regular := bulkQty * item.CostPerUnit
		bulk := regular * (1 - bulkDiscount)
		savings := regular - bulk
		if savings <= bulkMinSavings {
			continue
		}
		recs = append(recs, model.BulkRecommendation{
			ItemID:       item.ID,
			ItemName:     item.Name,
			Unit:         item.Unit,
			MonthlyUsage: monthly,
			BulkQuantity: bulkQty,
			RegularCost:  regular,
			BulkCost:     bulk,
			Savings:      savings,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Savings > recs[j].Savings })
	return recs
}
