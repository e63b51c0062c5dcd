package domain

// Confidence labels how much competitive signal backed a recommendation.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) String() string {
	return string(c)
}

// Warning flags attached to a recommendation.
const (
	FlagNoCompetitorData     = "no_competitor_data"
	FlagNoCurrentPrice       = "no_current_price"
	FlagPriceDecrease        = "price_decrease"
	FlagAboveCompetitors     = "price_increase_above_competitors"
	FlagWideCompetitorSpread = "wide_competitor_spread"
	FlagMissingCOGS          = "missing_cogs"
)

// PriceRecommendation is the pipeline's terminal artifact, one per
// catalogue item, immutable once produced.
type PriceRecommendation struct {
	ItemID                   string           `json:"item_id"`
	ItemName                 string           `json:"item_name,omitempty"`
	CurrentPrice             *float64         `json:"current_price,omitempty"`
	RecommendedPrice         *float64         `json:"recommended_price,omitempty"`
	Currency                 string           `json:"currency"`
	ExpectedUnits            *float64         `json:"expected_units,omitempty"`
	ExpectedProfit           *float64         `json:"expected_profit,omitempty"`
	ProfitUpliftVsCurrentPct *float64         `json:"profit_uplift_vs_current_pct,omitempty"`
	DemandLiftVsCurrentPct   *float64         `json:"demand_lift_vs_current_pct,omitempty"`
	CompetitorSummary        []MatchedListing `json:"competitor_summary,omitempty"`
	Rationale                string           `json:"rationale,omitempty"`
	Confidence               Confidence       `json:"confidence,omitempty"`
	Flags                    []string         `json:"flags,omitempty"`
}
