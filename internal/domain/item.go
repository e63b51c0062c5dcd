package domain

// CatalogueItem represents one product from the merchant's catalogue.
// Items are immutable once loaded; every derived quantity is recomputed
// from the item rather than written back onto it.
type CatalogueItem struct {
	ItemID       string   `json:"item_id"`
	ItemName     string   `json:"item_name"`
	Brand        string   `json:"brand,omitempty"`
	Category     string   `json:"category,omitempty"`
	COGS         *float64 `json:"cogs,omitempty"`
	CurrentPrice *float64 `json:"current_price,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Size         string   `json:"size,omitempty"`
	PackCount    *int     `json:"pack_count,omitempty"`
}

// Fingerprint is the canonical matching key derived from a catalogue item:
// a lower-cased brand|name|size|pack join string plus the size normalized
// to base units (grams or millilitres). SizeInBaseUnits is nil when the
// size string is absent or unparseable, meaning "unknown", not zero.
type Fingerprint struct {
	Key             string   `json:"key"`
	SizeInBaseUnits *float64 `json:"size_in_base_units,omitempty"`
}
