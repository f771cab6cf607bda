package lookup

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/theirongolddev/larder/internal/model"
)

const minBarcodeDigits = 8

// NormalizeBarcode strips everything but digits. Codes shorter than eight
// digits are rejected.
func NormalizeBarcode(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	code := b.String()
	return code, len(code) >= minBarcodeDigits
}

var quantityRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*([a-zA-Z]+)?`)

var unitAliases = map[string]string{
	"g": "g", "gr": "g", "gram": "g", "grams": "g",
	"kg": "kg", "kilo": "kg", "kilos": "kg",
	"mg": "mg",
	"ml": "ml", "cl": "cl", "dl": "dl",
	"l": "l", "lt": "l", "liter": "l", "litre": "l", "liters": "l", "litres": "l",
	"oz": "oz", "floz": "fl_oz",
	"lb": "lb", "lbs": "lb",
	"pcs": "count", "pc": "count", "count": "count", "pack": "pack", "packs": "pack",
}

// ParseQuantity extracts the first "<decimal> [unit]" from a package label
// such as "500 g" or "1,5L". Anything unparseable is one count.
func ParseQuantity(s string) (float64, string) {
	m := quantityRe.FindStringSubmatch(s)
	if m == nil {
		return 1, "count"
	}
	qty, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil || qty <= 0 {
		return 1, "count"
	}
	unit, ok := unitAliases[strings.ToLower(m[2])]
	if !ok {
		unit = "count"
	}
	return qty, unit
}

type categoryRule struct {
	category model.Category
	keywords []string
}

// Rules are checked in order; the first keyword hit wins.
var categoryRules = []categoryRule{
	{model.CategoryFrozen, []string{"frozen", "surgel"}},
	{model.CategoryCanned, []string{"canned", "tinned", "conserve"}},
	{model.CategorySeafood, []string{"seafood", "fish", "shrimp", "prawn", "salmon", "tuna", "cod", "mussel"}},
	{model.CategoryProtein, []string{"meat", "chicken", "beef", "pork", "poultr", "sausage", "ham", "turkey", "eggs", "tofu"}},
	{model.CategoryDairy, []string{"dair", "milk", "cheese", "yogurt", "yoghurt", "cream", "butter"}},
	{model.CategoryBakery, []string{"bread", "bakery", "pastr", "brioche", "croissant", "bagel"}},
	{model.CategoryGrains, []string{"cereal", "pasta", "rice", "grain", "flour", "oat", "noodle", "quinoa"}},
	{model.CategoryProduce, []string{"fruit", "vegetable", "produce", "salad", "legume", "fresh"}},
	{model.CategoryCondiments, []string{"sauce", "condiment", "ketchup", "mustard", "mayonnaise", "dressing", "vinegar", "oil"}},
	{model.CategoryBeverages, []string{"beverage", "drink", "juice", "soda", "coffee", "tea", "waters"}},
	{model.CategorySnacks, []string{"snack", "chip", "crisp", "biscuit", "cookie", "chocolate", "cand", "confection"}},
	{model.CategorySpices, []string{"spice", "herb", "seasoning", "salt"}},
}

// MapCategory maps free-form catalog category text to a Category by keyword
// prefix on each word.
func MapCategory(text string) model.Category {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, rule := range categoryRules {
		for _, w := range words {
			for _, kw := range rule.keywords {
				if strings.HasPrefix(w, kw) {
					return rule.category
				}
			}
		}
	}
	return model.CategoryOther
}
