package expiry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/larder/internal/model"
)

func TestIngredients(t *testing.T) {
	tests := []struct {
		item model.InventoryItem
		want []Ingredient
	}{
		{model.InventoryItem{Name: "Free-range Eggs"}, []Ingredient{IngredientProtein}},
		{model.InventoryItem{Name: "Eggplant"}, []Ingredient{IngredientVegetables}},
		{model.InventoryItem{Name: "Baby Spinach"}, []Ingredient{IngredientGreens}},
		{model.InventoryItem{Name: "Cherry Tomatoes"}, []Ingredient{IngredientVegetables}},
		{model.InventoryItem{Name: "Strawberry yogurt"}, []Ingredient{IngredientDairy}},
		{model.InventoryItem{Name: "Gouda", Category: model.CategoryDairy}, []Ingredient{IngredientDairy}},
		{model.InventoryItem{Name: "Mystery jar"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.item.Name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ingredients(tt.item))
		})
	}
}

func TestGenerateMealSuggestions(t *testing.T) {
	items := []model.InventoryItem{
		{ID: "a", Name: "Chicken thighs"},
		{ID: "b", Name: "Broccoli"},
		{ID: "c", Name: "Jasmine rice"},
	}

	got := GenerateMealSuggestions(items)
	require.NotEmpty(t, got)
	assert.Equal(t, "Stir Fry", got[0].Name)
	assert.Equal(t, 3, got[0].MatchCount)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got[0].ItemIDs)
	assert.Equal(t, "Soup", got[1].Name)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].MatchCount, got[i].MatchCount)
	}
	for _, s := range got {
		assert.GreaterOrEqual(t, s.MatchCount, minMealMatches)
		assert.NotEqual(t, "Smoothie", s.Name)
	}
}

func TestGenerateMealSuggestions_SingleRole(t *testing.T) {
	assert.Empty(t, GenerateMealSuggestions([]model.InventoryItem{{ID: "a", Name: "Apples"}, {ID: "b", Name: "Pears"}}))
}
