package expiry

import (
	"sort"
	"strings"
	"unicode"

	"github.com/theirongolddev/larder/internal/model"
)

// Ingredient is a coarse culinary role used to match meal templates.
type Ingredient string

const (
	IngredientProtein    Ingredient = "protein"
	IngredientVegetables Ingredient = "vegetables"
	IngredientFruit      Ingredient = "fruit"
	IngredientDairy      Ingredient = "dairy"
	IngredientGreens     Ingredient = "greens"
	IngredientGrains     Ingredient = "grains"
)

const minMealMatches = 2

var ingredientKeywords = map[Ingredient][]string{
	IngredientProtein: {
		"chicken", "beef", "pork", "turkey", "tofu", "egg", "fish", "salmon", "tuna",
		"shrimp", "bacon", "sausage", "ham", "lamb", "beans", "lentils", "tempeh",
	},
	IngredientVegetables: {
		"carrot", "broccoli", "pepper", "onion", "zucchini", "tomato", "mushroom", "celery",
		"cucumber", "cabbage", "potato", "corn", "peas", "cauliflower", "eggplant", "squash",
	},
	IngredientFruit: {
		"apple", "banana", "berries", "strawberries", "blueberries", "raspberries", "orange",
		"mango", "peach", "pear", "grape", "pineapple", "lemon", "lime", "kiwi", "cherries",
	},
	IngredientDairy: {
		"milk", "cheese", "yogurt", "yoghurt", "cream", "butter", "mozzarella", "cheddar",
	},
	IngredientGreens: {
		"spinach", "lettuce", "kale", "arugula", "chard", "greens", "romaine",
	},
	IngredientGrains: {
		"rice", "pasta", "bread", "tortilla", "noodle", "quinoa", "oats", "couscous",
		"spaghetti", "penne", "bagel", "wrap",
	},
}

var categoryIngredient = map[model.Category]Ingredient{
	model.CategoryProtein: IngredientProtein,
	model.CategorySeafood: IngredientProtein,
	model.CategoryDairy:   IngredientDairy,
	model.CategoryGrains:  IngredientGrains,
	model.CategoryBakery:  IngredientGrains,
}

type mealTemplate struct {
	name     string
	requires []Ingredient
}

var mealTemplates = []mealTemplate{
	{"Stir Fry", []Ingredient{IngredientProtein, IngredientVegetables, IngredientGrains}},
	{"Omelette", []Ingredient{IngredientProtein, IngredientDairy, IngredientVegetables}},
	{"Smoothie", []Ingredient{IngredientFruit, IngredientDairy, IngredientGreens}},
	{"Salad", []Ingredient{IngredientGreens, IngredientVegetables, IngredientProtein}},
	{"Pasta Bake", []Ingredient{IngredientGrains, IngredientDairy, IngredientVegetables}},
	{"Soup", []Ingredient{IngredientVegetables, IngredientProtein, IngredientGrains}},
	{"Wrap", []Ingredient{IngredientGrains, IngredientProtein, IngredientGreens}},
	{"Fruit Parfait", []Ingredient{IngredientFruit, IngredientDairy, IngredientGrains}},
}

// MealSuggestion is a meal template the given items can mostly cover.
type MealSuggestion struct {
	Name       string       `json:"name"`
	Matched    []Ingredient `json:"matched"`
	MatchCount int          `json:"match_count"`
	ItemIDs    []string     `json:"item_ids"`
}

// Ingredients classifies an item by keyword matches on its name, falling
// back to its category.
func Ingredients(item model.InventoryItem) []Ingredient {
	words := strings.FieldsFunc(strings.ToLower(item.Name), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	var out []Ingredient
	for _, ing := range []Ingredient{
		IngredientProtein, IngredientVegetables, IngredientFruit,
		IngredientDairy, IngredientGreens, IngredientGrains,
	} {
		if matchesAny(words, ingredientKeywords[ing]) {
			out = append(out, ing)
		}
	}
	if ing, ok := categoryIngredient[item.Category]; ok && len(out) == 0 {
		out = append(out, ing)
	}
	return out
}

func matchesAny(words, keywords []string) bool {
	for _, w := range words {
		for _, kw := range keywords {
			if w == kw || w == kw+"s" || w == kw+"es" {
				return true
			}
		}
	}
	return false
}

// GenerateMealSuggestions scores every template against items. Templates
// need at least two matched ingredient roles; best matches come first.
func GenerateMealSuggestions(items []model.InventoryItem) []MealSuggestion {
	byIngredient := make(map[Ingredient][]string)
	for _, it := range items {
		for _, ing := range Ingredients(it) {
			byIngredient[ing] = append(byIngredient[ing], it.ID)
		}
	}

	var out []MealSuggestion
	for _, tmpl := range mealTemplates {
		s := MealSuggestion{Name: tmpl.name}
		seen := make(map[string]bool)
		for _, ing := range tmpl.requires {
			ids := byIngredient[ing]
			if len(ids) == 0 {
				continue
			}
			s.Matched = append(s.Matched, ing)
			for _, id := range ids {
				if !seen[id] {
					seen[id] = true
					s.ItemIDs = append(s.ItemIDs, id)
				}
			}
		}
		s.MatchCount = len(s.Matched)
		if s.MatchCount >= minMealMatches {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchCount > out[j].MatchCount })
	return out
}

func mealsByItem(suggestions []MealSuggestion) map[string][]string {
	out := make(map[string][]string)
	for _, s := range suggestions {
		for _, id := range s.ItemIDs {
			out[id] = append(out[id], s.Name)
		}
	}
	return out
}
