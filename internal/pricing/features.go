package pricing

import (
	"sort"

	"dzukou/pricer/internal/domain"
)

// AggregateFeatures reduces matched listings into the price-comparison
// statistics consumed by the optimizer. Listings without an effective
// price are ignored; when none remain every field is nil and the count
// is zero, which is a valid "no competitive signal" state.
func AggregateFeatures(currentPrice *float64, matched []domain.MatchedListing) domain.ComparisonFeatures {
	prices := make([]float64, 0, len(matched))
	for _, m := range matched {
		if m.EffectivePrice != nil {
			prices = append(prices, *m.EffectivePrice)
		}
	}

	if len(prices) == 0 {
		return domain.ComparisonFeatures{}
	}

	sort.Float64s(prices)

	minPrice := prices[0]
	maxPrice := prices[len(prices)-1]
	medPrice := median(prices)
	spread := maxPrice - minPrice

	features := domain.ComparisonFeatures{
		MinCompetitor:    &minPrice,
		MedianCompetitor: &medPrice,
		MaxCompetitor:    &maxPrice,
		Spread:           &spread,
		NumCompetitors:   len(prices),
	}

	if currentPrice != nil && *currentPrice > 0 {
		index := minPrice / *currentPrice
		undercut := (*currentPrice - minPrice) / *currentPrice
		features.CompetitorIndex = &index
		features.UndercutPct = &undercut
	}

	return features
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}
