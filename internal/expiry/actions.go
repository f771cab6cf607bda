package expiry

import (
	"github.com/theirongolddev/larder/internal/model"
)

// suggestedActions returns advice for an item days away from expiry,
// most useful first.
func suggestedActions(item model.InventoryItem, days int) []string {
	if days < 0 {
		return []string{
			"Check for spoilage before using",
			"Discard if it smells or looks off",
			"Record it as waste to improve future forecasts",
		}
	}

	var actions []string
	if days <= criticalDays {
		actions = append(actions, "Use today or tomorrow")
		if item.Location != model.LocationFreezer &&
			(item.Category == model.CategoryProtein || item.Category == model.CategoryDairy) {
			actions = append(actions, "Move to the freezer to extend shelf life")
		}
		switch item.Category {
		case model.CategoryProduce:
			actions = append(actions, "Cook it into a soup or stir fry")
		case model.CategoryBakery:
			actions = append(actions, "Toast it or turn it into breadcrumbs")
		case model.CategoryLeftovers:
			actions = append(actions, "Have it for the next meal")
		}
		if item.Location == model.LocationCounter && item.Category == model.CategoryProduce {
			actions = append(actions, "Refrigerate to slow ripening")
		}
		return actions
	}

	actions = append(actions, "Plan a meal around it this week")
	if item.OpenedDate != nil {
		actions = append(actions, "Opened: keep it sealed and chilled")
	}
	if item.Location != model.LocationFreezer && item.Category.Freezable() {
		actions = append(actions, "Freeze a portion if you will not finish it in time")
	}
	return actions
}
