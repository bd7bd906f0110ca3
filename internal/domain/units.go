package domain

import "strings"

// UnitFamily is a coarse measurement class. Items in different families never merge.
type UnitFamily string

const (
	FamilyWeight UnitFamily = "weight"
	FamilyVolume UnitFamily = "volume"
	FamilyCount  UnitFamily = "count"
	FamilyOther  UnitFamily = "other"
)

// Unit is a canonical unit string as produced by ParseUnit
type Unit string

type unitInfo struct {
	family UnitFamily
	// factor converts one of this unit into the family base unit (g, ml, each).
	// Zero means the unit is not convertible and only merges with itself.
	factor float64
}

var unitCatalog = map[Unit]unitInfo{
	// weight, base g
	"g":  {FamilyWeight, 1},
	"kg": {FamilyWeight, 1000},
	"oz": {FamilyWeight, 28.349523125},
	"lb": {FamilyWeight, 453.59237},

	// volume, base ml
	"ml":     {FamilyVolume, 1},
	"l":      {FamilyVolume, 1000},
	"tsp":    {FamilyVolume, 4.92892159375},
	"tbsp":   {FamilyVolume, 14.78676478125},
	"fl oz":  {FamilyVolume, 29.5735295625},
	"cup":    {FamilyVolume, 236.5882365},
	"pint":   {FamilyVolume, 473.176473},
	"quart":  {FamilyVolume, 946.352946},
	"gallon": {FamilyVolume, 3785.411784},

	// count, base each
	"each":  {FamilyCount, 1},
	"dozen": {FamilyCount, 12},

	// discrete containers: count family, not convertible
	"can":     {FamilyCount, 0},
	"jar":     {FamilyCount, 0},
	"bottle":  {FamilyCount, 0},
	"bag":     {FamilyCount, 0},
	"box":     {FamilyCount, 0},
	"package": {FamilyCount, 0},
	"bunch":   {FamilyCount, 0},
	"head":    {FamilyCount, 0},
	"clove":   {FamilyCount, 0},
	"slice":   {FamilyCount, 0},
	"stick":   {FamilyCount, 0},
	"loaf":    {FamilyCount, 0},
	"sprig":   {FamilyCount, 0},
	"pinch":   {FamilyCount, 0},
}

var unitAliases = map[string]Unit{
	"gram": "g", "grams": "g", "gr": "g",
	"kilogram": "kg", "kilograms": "kg", "kgs": "kg",
	"ounce": "oz", "ounces": "oz",
	"pound": "lb", "pounds": "lb", "lbs": "lb",

	"milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"teaspoon": "tsp", "teaspoons": "tsp", "tsps": "tsp",
	"tablespoon": "tbsp", "tablespoons": "tbsp", "tbsps": "tbsp", "tbs": "tbsp",
	"floz": "fl oz", "fluid ounce": "fl oz", "fluid ounces": "fl oz", "fl. oz": "fl oz",
	"cups": "cup", "c": "cup",
	"pints": "pint", "pt": "pint",
	"quarts": "quart", "qt": "quart",
	"gallons": "gallon", "gal": "gallon",

	"ea": "each", "whole": "each", "piece": "each", "pieces": "each", "pc": "each",
	"pcs": "each", "item": "each", "items": "each", "count": "each", "ct": "each", "unit": "each",
	"dozens": "dozen", "dz": "dozen",

	"cans": "can", "jars": "jar", "bottles": "bottle", "bags": "bag", "boxes": "box",
	"packages": "package", "pkg": "package", "pack": "package", "packs": "package",
	"bunches": "bunch", "heads": "head", "cloves": "clove", "slices": "slice",
	"sticks": "stick", "loaves": "loaf", "sprigs": "sprig", "pinches": "pinch",
}

// ParseUnit canonicalizes a free-text unit. Unknown units are returned trimmed and
// lowercased so that identical spellings still merge with each other.
func ParseUnit(raw string) Unit {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, ".")
	s = strings.Join(strings.Fields(s), " ")
	if _, ok := unitCatalog[Unit(s)]; ok {
		return Unit(s)
	}
	if u, ok := unitAliases[s]; ok {
		return u
	}
	return Unit(s)
}

// Family returns the measurement class of the unit
func (u Unit) Family() UnitFamily {
	if info, ok := unitCatalog[u]; ok {
		return info.family
	}
	return FamilyOther
}

// Convertible reports whether quantities in u can be converted to other units of its family
func (u Unit) Convertible() bool {
	info, ok := unitCatalog[u]
	return ok && info.factor > 0
}

// Factor returns the multiplier from u to its family base unit, or 0 if not convertible
func (u Unit) Factor() float64 {
	return unitCatalog[u].factor
}
