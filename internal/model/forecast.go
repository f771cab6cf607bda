package model

import "time"

// UsagePrediction is the forecast for a single item. It is derived, never persisted.
type UsagePrediction struct {
	ItemID                   string    `json:"item_id"`
	ItemName                 string    `json:"item_name"`
	CurrentQuantity          float64   `json:"current_quantity"`
	PredictedDepletionDate   time.Time `json:"predicted_depletion_date"`
	ConfidenceScore          float64   `json:"confidence_score"`
	DailyUsageRate           float64   `json:"daily_usage_rate"`
	WeeklyUsageRate          float64   `json:"weekly_usage_rate"`
	SuggestedReorderDate     time.Time `json:"suggested_reorder_date"`
	SuggestedReorderQuantity float64   `json:"suggested_reorder_quantity"`
	HistoricalDataPoints     int       `json:"historical_data_points"`
}

// Priority ranks shopping list entries.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank gives the total order low < medium < high < urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return -1
}

// ShoppingReason explains why an entry is on the list.
type ShoppingReason string

const (
	ReasonDepleted           ShoppingReason = "depleted"
	ReasonLowStock           ShoppingReason = "low_stock"
	ReasonPredictedDepletion ShoppingReason = "predicted_depletion"
	ReasonExpiring           ShoppingReason = "expiring"
	ReasonManual             ShoppingReason = "manual"
)

// ShoppingListItem is one line of the generated replenishment list.
type ShoppingListItem struct {
	ItemID            string         `json:"item_id,omitempty"`
	Name              string         `json:"name"`
	SuggestedQuantity float64        `json:"suggested_quantity"`
	Unit              string         `json:"unit"`
	Priority          Priority       `json:"priority"`
	Reason            ShoppingReason `json:"reason"`
	EstimatedCost     float64        `json:"estimated_cost"`
	AddedAt           time.Time      `json:"added_at"`
}

// BulkRecommendation suggests buying a high-usage item in bulk.
type BulkRecommendation struct {
	ItemID       string  `json:"item_id"`
	ItemName     string  `json:"item_name"`
	Unit         string  `json:"unit"`
	MonthlyUsage float64 `json:"monthly_usage"`
	BulkQuantity float64 `json:"bulk_quantity"`
	RegularCost  float64 `json:"regular_cost"`
	BulkCost     float64 `json:"bulk_cost"`
	Savings      float64 `json:"savings"`
}

// TrendDirection describes recent usage relative to the prior period.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// UsageTrend compares the last seven usage events with the seven before.
type UsageTrend struct {
	Direction     TrendDirection `json:"direction"`
	PercentChange float64        `json:"percent_change"`
}
