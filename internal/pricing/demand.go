package pricing

import (
	"math"
	"strings"
)

const defaultPriorKey = "default"

// DefaultElasticityPriors holds the built-in category elasticity priors.
// More negative means more price-sensitive. These should be recalibrated
// against sales history when it becomes available.
var DefaultElasticityPriors = map[string]float64{
	"default":     -1.2,
	"clothing":    -1.5,
	"home":        -1.1,
	"accessories": -1.3,
}

// Estimator maps categories to elasticity priors and projects demand.
// The prior table is immutable for the process lifetime and passed in
// explicitly rather than read from a global.
type Estimator struct {
	priors map[string]float64
}

func NewEstimator(priors map[string]float64) *Estimator {
	if len(priors) == 0 {
		priors = DefaultElasticityPriors
	}

	normalized := make(map[string]float64, len(priors))
	for category, elasticity := range priors {
		normalized[strings.ToLower(category)] = elasticity
	}
	if _, ok := normalized[defaultPriorKey]; !ok {
		normalized[defaultPriorKey] = DefaultElasticityPriors[defaultPriorKey]
	}

	return &Estimator{priors: normalized}
}

// ElasticityFor matches the category case-insensitively against the
// prior table; unmatched or absent categories fall back to the default
// prior.
func (e *Estimator) ElasticityFor(category string) float64 {
	if category != "" {
		if elasticity, ok := e.priors[strings.ToLower(category)]; ok {
			return elasticity
		}
	}
	return e.priors[defaultPriorKey]
}

// ExpectedUnits projects unit sales at a price from a known baseline via
// a constant-elasticity demand curve: baseline × (price/reference)^elasticity.
// Demand is zero, never an error, at non-positive prices or references.
func ExpectedUnits(baselineUnits, price, referencePrice, elasticity float64) float64 {
	if price <= 0 || referencePrice <= 0 {
		return 0.0
	}
	return baselineUnits * math.Pow(price/referencePrice, elasticity)
}
