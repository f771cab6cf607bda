// Package model defines domain types for the larder inventory, ledger, and forecasts.
package model

import "time"

// Location is where an item is stored.
type Location string

const (
	LocationFridge    Location = "fridge"
	LocationPantry    Location = "pantry"
	LocationFreezer   Location = "freezer"
	LocationCounter   Location = "counter"
	LocationSpiceRack Location = "spice_rack"
)

// Locations lists every storage location in display order.
var Locations = []Location{LocationFridge, LocationFreezer, LocationPantry, LocationCounter, LocationSpiceRack}

// Valid reports whether l is a known location.
func (l Location) Valid() bool {
	for _, known := range Locations {
		if l == known {
			return true
		}
	}
	return false
}

// Category drives default shelf life and freezability rules.
type Category string

const (
	CategoryProduce    Category = "produce"
	CategoryDairy      Category = "dairy"
	CategoryProtein    Category = "protein"
	CategorySeafood    Category = "seafood"
	CategoryGrains     Category = "grains"
	CategoryBakery     Category = "bakery"
	CategoryFrozen     Category = "frozen"
	CategoryCanned     Category = "canned"
	CategoryCondiments Category = "condiments"
	CategoryBeverages  Category = "beverages"
	CategorySnacks     Category = "snacks"
	CategorySpices     Category = "spices"
	CategoryLeftovers  Category = "leftovers"
	CategoryOther      Category = "other"
)

// Categories lists every category.
var Categories = []Category{
	CategoryProduce, CategoryDairy, CategoryProtein, CategorySeafood, CategoryGrains,
	CategoryBakery, CategoryFrozen, CategoryCanned, CategoryCondiments, CategoryBeverages,
	CategorySnacks, CategorySpices, CategoryLeftovers, CategoryOther,
}

var shelfLifeDays = map[Category]int{
	CategoryProduce:    7,
	CategoryDairy:      10,
	CategoryProtein:    3,
	CategorySeafood:    2,
	CategoryGrains:     180,
	CategoryBakery:     5,
	CategoryFrozen:     90,
	CategoryCanned:     365,
	CategoryCondiments: 180,
	CategoryBeverages:  30,
	CategorySnacks:     60,
	CategorySpices:     365,
	CategoryLeftovers:  4,
	CategoryOther:      7,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := shelfLifeDays[c]
	return ok
}

// DefaultShelfLifeDays returns the typical days from purchase to expiry.
func (c Category) DefaultShelfLifeDays() int {
	if d, ok := shelfLifeDays[c]; ok {
		return d
	}
	return shelfLifeDays[CategoryOther]
}

// Freezable reports whether moving the item to the freezer extends its life.
func (c Category) Freezable() bool {
	switch c {
	case CategoryProtein, CategorySeafood, CategoryDairy, CategoryBakery, CategoryLeftovers, CategoryProduce:
		return true
	}
	return false
}

// Nutrition holds per-100g nutrient values.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Sugar    float64 `json:"sugar,omitempty"`
	Fiber    float64 `json:"fiber,omitempty"`
	Salt     float64 `json:"salt,omitempty"`
}

// InventoryItem is the current state of one stocked good.
type InventoryItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit"`
	Location Location `json:"location"`
	Category Category `json:"category"`

	PurchaseDate time.Time  `json:"purchase_date"`
	ExpiryDate   time.Time  `json:"expiry_date"`
	OpenedDate   *time.Time `json:"opened_date,omitempty"`

	AvgUsageRate           float64   `json:"avg_usage_rate"`
	PredictedDepletionDate time.Time `json:"predicted_depletion_date"`

	Cost        float64 `json:"cost"`
	CostPerUnit float64 `json:"cost_per_unit"`

	Barcode   string     `json:"barcode,omitempty"`
	Brand     string     `json:"brand,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
	Nutrition *Nutrition `json:"nutrition,omitempty"`

	IsLeftover   bool   `json:"is_leftover,omitempty"`
	SourceMealID string `json:"source_meal_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Freshness buckets an item by remaining shelf life.
type Freshness string

const (
	FreshnessFresh    Freshness = "fresh"
	FreshnessGood     Freshness = "good"
	FreshnessUseSoon  Freshness = "use_soon"
	FreshnessExpiring Freshness = "expiring"
	FreshnessExpired  Freshness = "expired"
)

// InventoryStats is the dashboard aggregate over the whole inventory.
type InventoryStats struct {
	TotalItems       int              `json:"total_items"`
	TotalValue       float64          `json:"total_value"`
	ByLocation       map[Location]int `json:"by_location"`
	ByCategory       map[Category]int `json:"by_category"`
	ExpiringSoon     int              `json:"expiring_soon"`      // within 48h
	ExpiringThisWeek int              `json:"expiring_this_week"` // 48h to 7d
	LowStock         int              `json:"low_stock"`
	WasteThisMonth   int              `json:"waste_this_month"`
	WasteCostMonth   float64          `json:"waste_cost_month"`
	AvgLifespanDays  float64          `json:"avg_lifespan_days"`
}
