package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/pkg/logger"
)

// converted quantities are rounded here before store rounding so that
// 1 lb + 8 oz comes out as 1.5 lb and not 1.5000000000000001
const conversionPlaces = 6

// ConsolidatorConfig holds dependencies for the consolidator
type ConsolidatorConfig struct {
	Matcher   *MatchPipeline
	Validator *validator.Validate
	Logger    *zap.Logger
}

// Consolidator merges parsed meals and restock additions into one shopping list.
// It keeps no state between calls.
type Consolidator struct {
	matcher  *MatchPipeline
	validate *validator.Validate
	logger   *zap.Logger
}

// NewConsolidator creates a consolidator. A nil matcher uses the default pipeline.
func NewConsolidator(config ConsolidatorConfig) *Consolidator {
	matcher := config.Matcher
	if matcher == nil {
		matcher = NewMatchingService(MatchConfig{Logger: config.Logger}).Pipeline()
	}
	validate := config.Validator
	if validate == nil {
		validate = NewValidator()
	}
	return &Consolidator{
		matcher:  matcher,
		validate: validate,
		logger:   logger.OrNop(config.Logger).Named("consolidator"),
	}
}

// ConsolidationInput is everything one consolidation run reads
type ConsolidationInput struct {
	Meals            []domain.ParsedMeal
	RestockAdditions []domain.Ingredient
	Staples          domain.StapleSet
	Inventory        *domain.InventorySnapshot
}

// ExcludedItem is a merge group the exclusion policy dropped
type ExcludedItem struct {
	Ingredient string   `json:"ingredient"`
	Rule       string   `json:"rule"`
	FromMeals  []string `json:"from_meals"`
}

// ConsolidationResult is the shopping list plus every warning raised while building it
type ConsolidationResult struct {
	Items     []domain.ShoppingListItem      `json:"items"`
	Malformed []domain.MalformedInputError   `json:"malformed"`
	Conflicts []domain.CategoryConflictError `json:"conflicts"`
	Unmatched []string                       `json:"unmatched_restock"`
	Excluded  []ExcludedItem                 `json:"excluded"`
}

// HasWarnings reports whether the caller must surface anything besides the items
func (r *ConsolidationResult) HasWarnings() bool {
	return len(r.Malformed) > 0 || len(r.Conflicts) > 0 || len(r.Unmatched) > 0
}

type lineItem struct {
	key      string
	name     string
	quantity decimal.Decimal
	unit     domain.Unit
	category domain.Category
	source   string
}

type groupKey struct {
	name   string
	family domain.UnitFamily
	unit   domain.Unit // set only for units that cannot be converted
}

type mergeGroup struct {
	key        groupKey
	names      []string
	lines      []lineItem
	fromMeals  []string
	categories []domain.Category
}

func (g *mergeGroup) add(item lineItem) {
	g.names = append(g.names, item.name)
	g.lines = append(g.lines, item)
	if !containsString(g.fromMeals, item.source) {
		g.fromMeals = append(g.fromMeals, item.source)
	}
	if !containsCategory(g.categories, item.category) {
		g.categories = append(g.categories, item.category)
	}
}

// Consolidate merges in into a sorted shopping list.
//
// Malformed meals are left out whole and reported. Restock additions are matched against
// tracked inventory keys; unmatched ones are reported and treated as untracked. Items are
// grouped by normalized name and unit family, summed, filtered through the exclusion
// policy and rounded for the store. The only error is a PolicyViolationError.
func (c *Consolidator) Consolidate(in ConsolidationInput) (*ConsolidationResult, error) {
	result := &ConsolidationResult{
		Items:     []domain.ShoppingListItem{},
		Malformed: []domain.MalformedInputError{},
		Conflicts: []domain.CategoryConflictError{},
		Unmatched: []string{},
		Excluded:  []ExcludedItem{},
	}

	lines := c.flattenMeals(in.Meals, in.Inventory, result)
	lines = append(lines, c.flattenRestock(in.RestockAdditions, in.Inventory, result)...)

	groups := groupLines(lines)

	for _, g := range groups {
		decision, rule, err := Decide(PolicyInputFor(g.key.name, in.Staples, in.Inventory))
		if err != nil {
			c.logger.Error("exclusion policy violation", zap.String("ingredient", g.key.name), zap.Error(err))
			return nil, err
		}

		canonical := canonicalName(g.names)
		if decision == DecisionExclude {
			result.Excluded = append(result.Excluded, ExcludedItem{
				Ingredient: canonical,
				Rule:       rule,
				FromMeals:  g.fromMeals,
			})
			continue
		}

		item, conflict := c.buildItem(g, canonical, in.Inventory)
		if conflict != nil {
			result.Conflicts = append(result.Conflicts, *conflict)
		}
		result.Items = append(result.Items, item)
	}

	sortShoppingList(result.Items)

	c.logger.Debug("consolidated",
		zap.Int("meals", len(in.Meals)),
		zap.Int("items", len(result.Items)),
		zap.Int("excluded", len(result.Excluded)),
		zap.Int("malformed", len(result.Malformed)),
		zap.Int("conflicts", len(result.Conflicts)))

	return result, nil
}

// flattenMeals tags each purchase item with its meal. Pantry items only come along when
// the ledger says they are low or out.
func (c *Consolidator) flattenMeals(meals []domain.ParsedMeal, inventory *domain.InventorySnapshot, result *ConsolidationResult) []lineItem {
	var lines []lineItem
	for _, meal := range meals {
		if problems := c.validateMeal(meal); len(problems) > 0 {
			result.Malformed = append(result.Malformed, problems...)
			c.logger.Warn("meal rejected", zap.String("meal", meal.Name), zap.Int("problems", len(problems)))
			continue
		}

		for _, item := range meal.PurchaseItems {
			lines = append(lines, toLine(item, Normalize(item.Name), meal.Name))
		}
		for _, item := range meal.PantryItems {
			key := Normalize(item.Name)
			if entry, ok := inventory.Lookup(key); ok && entry.Status.NeedsRestock() {
				lines = append(lines, toLine(item, key, meal.Name))
			}
		}
	}
	return lines
}

func (c *Consolidator) validateMeal(meal domain.ParsedMeal) []domain.MalformedInputError {
	if err := c.validate.Struct(meal); err != nil {
		return MalformedFromValidation(meal.Name, err)
	}

	var problems []domain.MalformedInputError
	check := func(list string, items []domain.Ingredient) {
		for i, item := range items {
			if field, reason, ok := checkIngredient(item); !ok {
				problems = append(problems, domain.MalformedInputError{
					Meal:   meal.Name,
					Field:  fmt.Sprintf("%s[%d].%s", list, i, field),
					Reason: reason,
				})
			}
		}
	}
	check("purchase_items", meal.PurchaseItems)
	check("pantry_items", meal.PantryItems)
	return problems
}

// flattenRestock validates each addition on its own and resolves it to a ledger key
func (c *Consolidator) flattenRestock(additions []domain.Ingredient, inventory *domain.InventorySnapshot, result *ConsolidationResult) []lineItem {
	keys := inventory.Keys()
	var lines []lineItem
	for i, item := range additions {
		if err := c.validate.Struct(item); err != nil {
			for _, p := range MalformedFromValidation(domain.RestockSource, err) {
				p.Field = fmt.Sprintf("restock[%d].%s", i, p.Field)
				result.Malformed = append(result.Malformed, p)
			}
			continue
		}
		if field, reason, ok := checkIngredient(item); !ok {
			result.Malformed = append(result.Malformed, domain.MalformedInputError{
				Meal:   domain.RestockSource,
				Field:  fmt.Sprintf("restock[%d].%s", i, field),
				Reason: reason,
			})
			continue
		}

		key := Normalize(item.Name)
		if match, ok := c.matcher.Resolve(item.Name, keys); ok {
			key = Normalize(match.Key)
		} else {
			result.Unmatched = append(result.Unmatched, item.Name)
		}
		lines = append(lines, toLine(item, key, domain.RestockSource))
	}
	return lines
}

func toLine(item domain.Ingredient, key, source string) lineItem {
	return lineItem{
		key:      key,
		name:     strings.TrimSpace(item.Name),
		quantity: decimal.NewFromFloat(item.Quantity),
		unit:     domain.ParseUnit(item.Unit),
		category: item.Category,
		source:   source,
	}
}

// groupLines buckets lines by merge identity, keeping first-seen group order
func groupLines(lines []lineItem) []*mergeGroup {
	index := make(map[groupKey]*mergeGroup)
	var groups []*mergeGroup
	for _, line := range lines {
		k := groupKey{name: line.key, family: line.unit.Family()}
		if !line.unit.Convertible() {
			k.unit = line.unit
		}
		g, ok := index[k]
		if !ok {
			g = &mergeGroup{key: k}
			index[k] = g
			groups = append(groups, g)
		}
		g.add(line)
	}
	return groups
}

func (c *Consolidator) buildItem(g *mergeGroup, canonical string, inventory *domain.InventorySnapshot) (domain.ShoppingListItem, *domain.CategoryConflictError) {
	unit, total := sumGroup(g)

	var conflict *domain.CategoryConflictError
	category := g.categories[0]
	if len(g.categories) > 1 {
		category = domain.CategoryConflict
		conflict = &domain.CategoryConflictError{
			Ingredient: canonical,
			Unit:       string(unit),
			Categories: sortedCategories(g.categories),
			Meals:      g.fromMeals,
		}
		c.logger.Warn("category conflict", zap.String("ingredient", canonical), zap.Error(conflict))
	}

	rounded := RoundForStore(category, unit, total)
	quantity, _ := rounded.Float64()

	searchTerm := canonical
	if entry, ok := inventory.Lookup(g.key.name); ok && entry.SearchTerm != "" {
		searchTerm = entry.SearchTerm
	}

	return domain.ShoppingListItem{
		Ingredient: canonical,
		Quantity:   quantity,
		Unit:       string(unit),
		Category:   category,
		SearchTerm: searchTerm,
		FromMeals:  g.fromMeals,
	}, conflict
}

// sumGroup adds up a group's quantities. Mixed convertible units are expressed in the
// largest contributing unit so the result does not depend on input order. The converted
// total is rounded up, never below the raw sum.
func sumGroup(g *mergeGroup) (domain.Unit, decimal.Decimal) {
	unit := g.lines[0].unit
	mixed := false
	for _, line := range g.lines[1:] {
		if line.unit != unit {
			mixed = true
			if line.unit.Factor() > unit.Factor() || (line.unit.Factor() == unit.Factor() && line.unit < unit) {
				unit = line.unit
			}
		}
	}

	total := decimal.Zero
	if !mixed {
		for _, line := range g.lines {
			total = total.Add(line.quantity)
		}
		return unit, total
	}

	for _, line := range g.lines {
		total = total.Add(line.quantity.Mul(decimal.NewFromFloat(line.unit.Factor())))
	}
	factor := decimal.NewFromFloat(unit.Factor())
	converted := total.Div(factor).RoundCeil(conversionPlaces)
	// Div rounds at DivisionPrecision, which can land just under the base total
	if converted.Mul(factor).LessThan(total) {
		converted = converted.Add(decimal.New(1, -conversionPlaces))
	}
	return unit, converted
}

// canonicalName picks the longest description, ties broken lexically
func canonicalName(names []string) string {
	best := ""
	for _, n := range names {
		ln, lb := len([]rune(n)), len([]rune(best))
		if ln > lb || (ln == lb && n < best) {
			best = n
		}
	}
	return best
}

// sortShoppingList orders by category display order, then name, then unit
func sortShoppingList(items []domain.ShoppingListItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := a.Category.DisplayRank(), b.Category.DisplayRank(); ra != rb {
			return ra < rb
		}
		if na, nb := strings.ToLower(a.Ingredient), strings.ToLower(b.Ingredient); na != nb {
			return na < nb
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.Ingredient < b.Ingredient
	})
}

func sortedCategories(cats []domain.Category) []domain.Category {
	out := append([]domain.Category(nil), cats...)
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayRank() < out[j].DisplayRank() })
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsCategory(list []domain.Category, c domain.Category) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}
