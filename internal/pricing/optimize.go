package pricing

import (
	"fmt"
	"math"
	"sort"

	"dzukou/pricer/internal/domain"
)

const (
	gridTolerance = 1e-6

	// Minimum clearance kept under the original price when snapping past
	// an integer boundary, so a price just above a round number lands
	// visibly below it.
	snapClearance = 0.05
)

// DefaultEndings are the psychological price endings applied when the
// caller configures none.
var DefaultEndings = []float64{0.99, 0.95}

// OptimizeResult is the outcome of a grid search for one item.
type OptimizeResult struct {
	Price           float64
	Units           float64
	Profit          float64
	ProfitUpliftPct *float64
	DemandUpliftPct *float64
}

// Optimize searches a bounded price grid for the profit-maximizing
// price. Guardrails: never below the margin floor over cogs, never more
// than 20% under the cheapest known competitor, never more than 20%
// above it (or 50% above the reference price when no competitor price is
// known). Inconsistent guardrails widen the upper bound to keep the grid
// non-empty. Each grid point is snapped to a psychological ending before
// evaluation; the scan is ascending and deterministic, so the lowest
// price wins exact profit ties.
func Optimize(
	cogs float64,
	elasticity float64,
	currentPrice *float64,
	competitorMinPrice *float64,
	marginFloor float64,
	baselineUnits float64,
	priceStep float64,
	endings []float64,
) (OptimizeResult, error) {
	if cogs <= 0 {
		return OptimizeResult{}, fmt.Errorf("cogs must be positive to compute margin floor: %w", domain.ErrInvalidInput)
	}
	if len(endings) == 0 {
		endings = DefaultEndings
	}
	if priceStep <= 0 {
		priceStep = 0.50
	}

	referencePrice := cogs * (1 + marginFloor)
	if currentPrice != nil && *currentPrice > 0 {
		referencePrice = *currentPrice
	}

	anchor := referencePrice
	if competitorMinPrice != nil {
		anchor = *competitorMinPrice
	}
	lowerBound := math.Max(cogs*(1+marginFloor), anchor*0.8)

	var upperBound float64
	if competitorMinPrice != nil {
		upperBound = *competitorMinPrice * 1.2
	} else {
		upperBound = referencePrice * 1.5
	}
	if upperBound < lowerBound {
		upperBound = lowerBound * 1.2
	}

	seen := make(map[float64]struct{})
	grid := make([]float64, 0, int((upperBound-lowerBound)/priceStep)+1)
	for p := lowerBound; p <= upperBound+gridTolerance; p += priceStep {
		snapped := RoundToEnding(p, endings)
		if _, ok := seen[snapped]; ok {
			continue
		}
		seen[snapped] = struct{}{}
		grid = append(grid, snapped)
	}
	sort.Float64s(grid)

	best := OptimizeResult{Price: lowerBound, Profit: math.Inf(-1)}
	for _, price := range grid {
		units := ExpectedUnits(baselineUnits, price, referencePrice, elasticity)
		profit := (price - cogs) * units
		if profit > best.Profit {
			best = OptimizeResult{Price: price, Units: units, Profit: profit}
		}
	}

	if currentPrice != nil && *currentPrice > 0 {
		currentUnits := ExpectedUnits(baselineUnits, *currentPrice, referencePrice, elasticity)
		currentProfit := (*currentPrice - cogs) * currentUnits
		if currentProfit != 0 {
			uplift := (best.Profit - currentProfit) / currentProfit * 100.0
			best.ProfitUpliftPct = &uplift
		}
		if currentUnits != 0 {
			lift := (best.Units - currentUnits) / currentUnits * 100.0
			best.DemandUpliftPct = &lift
		}
	}

	return best, nil
}

// RoundToEnding snaps a price down to the closest psychological ending:
// the largest integer_part+ending not exceeding the price. When the
// fractional part is below every ending, the snap drops past the integer
// boundary keeping at least snapClearance under the original price. With
// no usable ending the price is returned rounded to cents.
func RoundToEnding(price float64, endings []float64) float64 {
	if len(endings) == 0 {
		return roundCents(price)
	}

	sorted := append([]float64(nil), endings...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	integerPart := math.Floor(price)
	for _, ending := range sorted {
		if candidate := integerPart + ending; candidate <= price {
			return roundCents(candidate)
		}
	}
	for _, ending := range sorted {
		if candidate := integerPart - 1 + ending; candidate <= price-snapClearance {
			return roundCents(candidate)
		}
	}
	return roundCents(price)
}

func roundCents(price float64) float64 {
	return math.Round(price*100) / 100
}
