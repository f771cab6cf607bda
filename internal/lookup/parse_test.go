package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/larder/internal/model"
)

func TestNormalizeBarcode(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"5 449000 000996", "5449000000996", true},
		{"0-12345-67890-5", "012345678905", true},
		{"12345678", "12345678", true},
		{"1234567", "1234567", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeBarcode(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		qty  float64
		unit string
	}{
		{"500 g", 500, "g"},
		{"1,5L", 1.5, "l"},
		{"330ml", 330, "ml"},
		{"2 lbs", 2, "lb"},
		{"12", 12, "count"},
		{"6 x 330 ml", 6, "count"},
		{"", 1, "count"},
		{"family size", 1, "count"},
		{"0 g", 1, "count"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			qty, unit := ParseQuantity(tt.in)
			assert.Equal(t, tt.qty, qty)
			assert.Equal(t, tt.unit, unit)
		})
	}
}

func TestMapCategory(t *testing.T) {
	tests := map[string]model.Category{
		"Dairies, Milks, Whole milks":                     model.CategoryDairy,
		"Plant-based foods and beverages, Beverages, Teas": model.CategoryBeverages,
		"Frozen foods, Frozen fish":                        model.CategoryFrozen,
		"Canned tuna":                                      model.CategoryCanned,
		"Meats, Poultry, Chickens":                         model.CategoryProtein,
		"Fresh fruits, Apples":                             model.CategoryProduce,
		"Breads, Sliced breads":                            model.CategoryBakery,
		"Cereals and potatoes, Pastas":                     model.CategoryGrains,
		"Steak":                                            model.CategoryOther,
		"":                                                 model.CategoryOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapCategory(in), in)
	}
}

func TestProductNewItem(t *testing.T) {
	p := Product{Barcode: "12345678", Name: "Skyr", Brand: "Arla", Category: model.CategoryDairy, Quantity: 450, Unit: "g"}
	in := p.NewItem(epoch)

	assert.Equal(t, "Skyr", in.Name)
	assert.Equal(t, 450.0, *in.Quantity)
	assert.Equal(t, model.LocationFridge, in.Location)
	assert.Equal(t, epoch.AddDate(0, 0, 10), *in.ExpiryDate)
	assert.Equal(t, model.SourceBarcode, in.Source)

	bare := Product{Name: "Thing", Category: "bogus"}.NewItem(epoch)
	assert.Equal(t, model.CategoryOther, bare.Category)
	assert.Equal(t, 1.0, *bare.Quantity)
	assert.Equal(t, model.LocationPantry, bare.Location)
}
