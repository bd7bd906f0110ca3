package decomposer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/grocerybutler/backend/internal/domain"
)

// wireIngredient is one ingredient as the decomposition service sends it
type wireIngredient struct {
	Ingredient   string  `json:"ingredient"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Category     string  `json:"category"`
	IsPantryItem bool    `json:"is_pantry_item"`
	Notes        string  `json:"notes"`
}

// wireMeal is a decomposed meal as the service sends it
type wireMeal struct {
	Name              string           `json:"name"`
	Servings          int              `json:"servings"`
	NeedsConfirmation *bool            `json:"needs_confirmation"`
	PurchaseItems     []wireIngredient `json:"purchase_items"`
	PantryItems       []wireIngredient `json:"pantry_items"`
}

var categoryAliases = map[string]domain.Category{
	"pantry":         domain.CategoryPantryDry,
	"dry_goods":      domain.CategoryPantryDry,
	"spices":         domain.CategoryPantryDry,
	"baking":         domain.CategoryPantryDry,
	"canned_goods":   domain.CategoryPantryDry,
	"condiments":     domain.CategoryPantryDry,
	"vegetables":     domain.CategoryProduce,
	"fruit":          domain.CategoryProduce,
	"meat_seafood":   domain.CategoryMeat,
	"meat_&_seafood": domain.CategoryMeat,
	"seafood":        domain.CategoryMeat,
	"poultry":        domain.CategoryMeat,
	"dairy_eggs":     domain.CategoryDairy,
	"dairy_&_eggs":   domain.CategoryDairy,
	"eggs":           domain.CategoryDairy,
	"bread":          domain.CategoryBakery,
	"beverage":       domain.CategoryBeverages,
	"drinks":         domain.CategoryBeverages,
}

// MapCategory converts a service category label into a domain category.
// Unknown labels come back as their cleaned-up form so the consolidator can
// reject the meal and name the field.
func MapCategory(raw string) domain.Category {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' }), "_")
	if c := domain.Category(s); c.Valid() {
		return c
	}
	if c, ok := categoryAliases[s]; ok {
		return c
	}
	return domain.Category(s)
}

// stripFences removes a surrounding markdown code fence
func stripFences(body []byte) []byte {
	text := bytes.TrimSpace(body)
	if bytes.HasPrefix(text, []byte("```")) {
		if i := bytes.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = text[3:]
		}
	}
	text = bytes.TrimSuffix(bytes.TrimSpace(text), []byte("```"))
	return bytes.TrimSpace(text)
}

// MapToParsedMeal decodes a service answer into a ParsedMeal. The answer may be a
// single meal object or an array of meals, in which case the one named like meal
// is picked and the first one otherwise.
func MapToParsedMeal(body []byte, meal string, servings int) (*domain.ParsedMeal, error) {
	text := stripFences(body)
	if len(text) == 0 {
		return nil, errors.New("empty response")
	}

	var wm wireMeal
	if text[0] == '[' {
		var meals []wireMeal
		if err := json.Unmarshal(text, &meals); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(meals) == 0 {
			return nil, errors.New("response contains no meals")
		}
		wm = pickMeal(meals, meal)
	} else if err := json.Unmarshal(text, &wm); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := &domain.ParsedMeal{
		Name:              wm.Name,
		Servings:          wm.Servings,
		NeedsConfirmation: true,
		PurchaseItems:     mapIngredients(wm.PurchaseItems, false),
		PantryItems:       mapIngredients(wm.PantryItems, true),
	}
	if out.Name == "" {
		out.Name = meal
	}
	if out.Servings <= 0 {
		out.Servings = servings
	}
	if wm.NeedsConfirmation != nil {
		out.NeedsConfirmation = *wm.NeedsConfirmation
	}
	return out, nil
}

func pickMeal(meals []wireMeal, name string) wireMeal {
	want := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	for _, m := range meals {
		if strings.Join(strings.Fields(strings.ToLower(m.Name)), " ") == want {
			return m
		}
	}
	return meals[0]
}

func mapIngredients(items []wireIngredient, pantry bool) []domain.Ingredient {
	out := make([]domain.Ingredient, 0, len(items))
	for _, w := range items {
		out = append(out, domain.Ingredient{
			Name:         strings.TrimSpace(w.Ingredient),
			Quantity:     w.Quantity,
			Unit:         string(domain.ParseUnit(w.Unit)),
			Category:     MapCategory(w.Category),
			IsPantryItem: pantry || w.IsPantryItem,
			Notes:        w.Notes,
		})
	}
	return out
}
