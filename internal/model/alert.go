package model

import "time"

// AlertType is the severity of an expiry alert.
type AlertType string

const (
	AlertWarning  AlertType = "warning"
	AlertCritical AlertType = "critical"
	AlertExpired  AlertType = "expired"
)

// Severity orders alert types: warning < critical < expired.
func (a AlertType) Severity() int {
	switch a {
	case AlertWarning:
		return 1
	case AlertCritical:
		return 2
	case AlertExpired:
		return 3
	}
	return 0
}

// ExpiryAlert tracks one item's approach to its expiry date.
type ExpiryAlert struct {
	ID               string     `json:"id"`
	ItemID           string     `json:"item_id"`
	ItemName         string     `json:"item_name"`
	AlertType        AlertType  `json:"alert_type"`
	DaysUntilExpiry  int        `json:"days_until_expiry"`
	SuggestedActions []string   `json:"suggested_actions"`
	MealSuggestions  []string   `json:"meal_suggestions,omitempty"`
	Acknowledged     bool       `json:"acknowledged"`
	AcknowledgedAt   *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// WasteReason explains why an item was thrown out.
type WasteReason string

const (
	WasteExpired  WasteReason = "expired"
	WasteSpoiled  WasteReason = "spoiled"
	WasteDamaged  WasteReason = "damaged"
	WasteDisliked WasteReason = "disliked"
	WasteOther    WasteReason = "other"
)

// Valid reports whether r is a known reason.
func (r WasteReason) Valid() bool {
	switch r {
	case WasteExpired, WasteSpoiled, WasteDamaged, WasteDisliked, WasteOther:
		return true
	}
	return false
}

// Preventable is true for waste that better planning would have avoided.
func (r WasteReason) Preventable() bool {
	return r == WasteExpired || r == WasteSpoiled
}

// WasteRecord is an immutable record of discarded food.
type WasteRecord struct {
	ID          string      `json:"id"`
	ItemID      string      `json:"item_id"`
	ItemName    string      `json:"item_name"`
	Quantity    float64     `json:"quantity"`
	Unit        string      `json:"unit"`
	Cost        float64     `json:"cost"`
	Reason      WasteReason `json:"reason"`
	WastedAt    time.Time   `json:"wasted_at"`
	Preventable bool        `json:"preventable"`
	Notes       string      `json:"notes,omitempty"`
}

// ReasonStats counts waste for a single reason.
type ReasonStats struct {
	Count int     `json:"count"`
	Cost  float64 `json:"cost"`
}

// ItemWaste aggregates waste for one item name.
type ItemWaste struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Cost  float64 `json:"cost"`
}

// WasteStats summarizes waste over a trailing window.
type WasteStats struct {
	PeriodDays         int                         `json:"period_days"`
	TotalCount         int                         `json:"total_count"`
	TotalCost          float64                     `json:"total_cost"`
	ByReason           map[WasteReason]ReasonStats `json:"by_reason"`
	TopItems           []ItemWaste                 `json:"top_items"`
	PreventablePercent float64                     `json:"preventable_percent"` // 0-1
}
