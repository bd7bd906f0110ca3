package domain

import "time"

// Category is a grocery store aisle category
type Category string

const (
	CategoryProduce   Category = "produce"
	CategoryMeat      Category = "meat"
	CategoryDairy     Category = "dairy"
	CategoryBakery    Category = "bakery"
	CategoryPantryDry Category = "pantry_dry"
	CategoryFrozen    Category = "frozen"
	CategoryBeverages Category = "beverages"
	CategoryDeli      Category = "deli"
	CategoryOther     Category = "other"

	// CategoryConflict marks a merged shopping list line whose sources disagreed on category.
	// It is never a valid input category.
	CategoryConflict Category = "conflict"
)

// CategoryDisplayOrder is the fixed order in which shopping list sections are emitted
var CategoryDisplayOrder = []Category{
	CategoryProduce,
	CategoryMeat,
	CategoryDairy,
	CategoryBakery,
	CategoryPantryDry,
	CategoryFrozen,
	CategoryBeverages,
	CategoryDeli,
	CategoryOther,
	CategoryConflict,
}

// Valid reports whether c is an input category (conflict is output-only)
func (c Category) Valid() bool {
	switch c {
	case CategoryProduce, CategoryMeat, CategoryDairy, CategoryBakery, CategoryPantryDry,
		CategoryFrozen, CategoryBeverages, CategoryDeli, CategoryOther:
		return true
	}
	return false
}

// DisplayRank returns the position of c in CategoryDisplayOrder
func (c Category) DisplayRank() int {
	for i, cat := range CategoryDisplayOrder {
		if cat == c {
			return i
		}
	}
	return len(CategoryDisplayOrder)
}

// Ingredient is a single ingredient with quantity and category
type Ingredient struct {
	Name         string   `json:"ingredient" yaml:"ingredient" validate:"required"`
	Quantity     float64  `json:"quantity" yaml:"quantity" validate:"gt=0"`
	Unit         string   `json:"unit" yaml:"unit" validate:"required"`
	Category     Category `json:"category" yaml:"category" validate:"required,category"`
	IsPantryItem bool     `json:"is_pantry_item" yaml:"is_pantry_item,omitempty"`
	Notes        string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ParsedMeal is a meal decomposed into its ingredient lists.
// It lives for a single consolidation request and is never persisted as-is.
type ParsedMeal struct {
	Name              string       `json:"name" validate:"required"`
	Servings          int          `json:"servings" validate:"gt=0"`
	KnownRecipe       bool         `json:"known_recipe"`
	NeedsConfirmation bool         `json:"needs_confirmation"`
	PurchaseItems     []Ingredient `json:"purchase_items" validate:"dive"`
	PantryItems       []Ingredient `json:"pantry_items" validate:"dive"`
}

// RestockSource is the from_meals sentinel for restock additions
const RestockSource = "restock"

// ShoppingListItem is a single line on the consolidated shopping list
type ShoppingListItem struct {
	Ingredient     string   `json:"ingredient"`
	Quantity       float64  `json:"quantity"`
	Unit           string   `json:"unit"`
	Category       Category `json:"category"`
	SearchTerm     string   `json:"search_term"`
	FromMeals      []string `json:"from_meals"`
	EstimatedPrice *float64 `json:"estimated_price"`
}

// RecipeIngredient is an ingredient stored with its per-serving quantity
type RecipeIngredient struct {
	Ingredient         `yaml:",inline"`
	QuantityPerServing float64 `json:"quantity_per_serving" yaml:"quantity_per_serving"`
}

// Recipe is a known recipe held in recipe memory.
// Name is the normalized key; DisplayName keeps the user's spelling.
type Recipe struct {
	ID              string             `json:"id" yaml:"-"`
	Name            string             `json:"name" yaml:"-"`
	DisplayName     string             `json:"display_name" yaml:"name" validate:"required"`
	DefaultServings int                `json:"default_servings" yaml:"servings" validate:"gt=0"`
	Ingredients     []RecipeIngredient `json:"ingredients" yaml:"ingredients" validate:"dive"`
	TimesOrdered    int                `json:"times_ordered" yaml:"-"`
	CreatedAt       time.Time          `json:"created_at" yaml:"-"`
	UpdatedAt       time.Time          `json:"updated_at" yaml:"-"`
}
