package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/grocerybutler/backend/internal/domain"
)

var half = decimal.NewFromFloat(0.5)

// dairyContainers lists the standard container sizes sold per unit, smallest first
var dairyContainers = map[domain.Unit][]decimal.Decimal{
	"cup":    decimals(1, 2, 4, 8, 16),
	"fl oz":  decimals(8, 16, 32, 64, 128),
	"gallon": decimals(0.5, 1),
	"quart":  decimals(1, 2, 4),
	"pint":   decimals(1, 2),
	"oz":     decimals(4, 6, 8, 16, 32),
	"lb":     decimals(0.5, 1, 2),
	"g":      decimals(100, 200, 250, 500, 1000),
	"ml":     decimals(250, 500, 1000, 2000),
	"l":      decimals(0.5, 1, 2, 4),
	"each":   decimals(6, 12, 18, 24),
	"stick":  decimals(4),
}

func decimals(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

// RoundForStore rounds a summed quantity up to something a store sells.
// produce rounds to the next whole unit, meat to the next half unit, dairy to the next
// container size for the unit (whole units when no table exists) and everything else
// up at two decimals. The result is never below q.
func RoundForStore(category domain.Category, unit domain.Unit, q decimal.Decimal) decimal.Decimal {
	if !q.IsPositive() {
		return decimal.Zero
	}

	switch category {
	case domain.CategoryProduce:
		return q.Ceil()
	case domain.CategoryMeat:
		return q.Div(half).Ceil().Mul(half)
	case domain.CategoryDairy:
		return roundToContainer(unit, q)
	default:
		return q.RoundCeil(2)
	}
}

func roundToContainer(unit domain.Unit, q decimal.Decimal) decimal.Decimal {
	sizes, ok := dairyContainers[unit]
	if !ok {
		return q.Ceil()
	}
	for _, size := range sizes {
		if q.LessThanOrEqual(size) {
			return size
		}
	}
	// past the largest container buy several of it
	largest := sizes[len(sizes)-1]
	return q.Div(largest).Ceil().Mul(largest)
}
