package domain

// ComparisonFeatures summarises the effective prices among matched
// listings. All pointer fields are nil when no priced listing survived
// matching; that is a valid "no competitive signal" state, not an error.
type ComparisonFeatures struct {
	MinCompetitor    *float64 `json:"min_competitor,omitempty"`
	MedianCompetitor *float64 `json:"median_competitor,omitempty"`
	MaxCompetitor    *float64 `json:"max_competitor,omitempty"`
	Spread           *float64 `json:"spread,omitempty"`
	NumCompetitors   int      `json:"num_competitors"`
	CompetitorIndex  *float64 `json:"competitor_index,omitempty"`
	UndercutPct      *float64 `json:"undercut_pct,omitempty"`
}
