package lookup

import (
	"time"

	"github.com/theirongolddev/larder/internal/inventory"
	"github.com/theirongolddev/larder/internal/model"
)

// Product is catalog metadata for one barcode.
type Product struct {
	Barcode   string           `json:"barcode"`
	Name      string           `json:"name"`
	Brand     string           `json:"brand,omitempty"`
	Category  model.Category   `json:"category"`
	Quantity  float64          `json:"quantity"`
	Unit      string           `json:"unit"`
	ImageURL  string           `json:"image_url,omitempty"`
	Nutrition *model.Nutrition `json:"nutrition,omitempty"`
}

// NewItem prefills an inventory entry for the product, with expiry from the
// category's typical shelf life.
func (p Product) NewItem(now time.Time) inventory.NewItem {
	cat := p.Category
	if !cat.Valid() {
		cat = model.CategoryOther
	}
	qty := p.Quantity
	if qty <= 0 {
		qty = 1
	}
	expiry := now.AddDate(0, 0, cat.DefaultShelfLifeDays())
	return inventory.NewItem{
		Name:       p.Name,
		Quantity:   &qty,
		Unit:       p.Unit,
		Location:   DefaultLocation(cat),
		Category:   cat,
		ExpiryDate: &expiry,
		Barcode:    p.Barcode,
		Brand:      p.Brand,
		ImageURL:   p.ImageURL,
		Nutrition:  p.Nutrition,
		Source:     model.SourceBarcode,
	}
}

// DefaultLocation is where a product of category c is usually kept.
func DefaultLocation(c model.Category) model.Location {
	switch c {
	case model.CategoryDairy, model.CategoryProtein, model.CategorySeafood, model.CategoryProduce, model.CategoryLeftovers:
		return model.LocationFridge
	case model.CategoryFrozen:
		return model.LocationFreezer
	case model.CategorySpices:
		return model.LocationSpiceRack
	}
	return model.LocationPantry
}
