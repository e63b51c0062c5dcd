package domain

// RawListing is one competitor offer as returned by a store scraper.
// The matcher only consumes Title, Brand, Size and URL; the remaining
// fields are carried through for aggregation and reporting.
type RawListing struct {
	Store          string   `json:"store"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Brand          string   `json:"brand,omitempty"`
	Size           string   `json:"size,omitempty"`
	ShelfPrice     *float64 `json:"shelf_price,omitempty"`
	CompareAtPrice *float64 `json:"compare_at_price,omitempty"`
	ShippingCost   *float64 `json:"shipping_cost,omitempty"`
	VATIncluded    *bool    `json:"vat_included,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	Stock          string   `json:"stock,omitempty"`
	RatingCount    *int     `json:"rating_count,omitempty"`
}

// MatchedListing pairs a raw listing with its match score and the price
// converted to the pipeline's base currency. EffectivePrice is nil when
// the listing carries no usable price.
type MatchedListing struct {
	Listing        RawListing `json:"listing"`
	MatchScore     float64    `json:"match_score"`
	EffectivePrice *float64   `json:"effective_price,omitempty"`
}
