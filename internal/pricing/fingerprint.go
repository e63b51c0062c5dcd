package pricing

import (
	"regexp"
	"strconv"
	"strings"

	"dzukou/pricer/internal/domain"
)

// sizePattern captures a numeric quantity followed by a unit token.
// Alternation is leftmost-first, so longer unit names must precede their
// prefixes ("lb" before "l", "grams" before "g").
var sizePattern = regexp.MustCompile(`([0-9.]+)\s*(fl oz|pound|grams|gram|litre|liter|kg|ml|gm|lb|oz|g|l)`)

// ParseSize converts a free-text size string into base units: grams for
// mass, millilitres for volume. Returns nil when the string is absent or
// unparseable; downstream code treats nil as "unknown", never as zero.
func ParseSize(sizeStr string) *float64 {
	if sizeStr == "" {
		return nil
	}

	matches := sizePattern.FindStringSubmatch(strings.ToLower(sizeStr))
	if matches == nil {
		return nil
	}

	qty, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil
	}

	var base float64
	switch matches[2] {
	case "g", "gm", "gram", "grams", "ml":
		base = qty
	case "kg", "l", "litre", "liter":
		base = qty * 1000.0
	case "oz", "fl oz":
		base = qty * 28.35
	case "lb", "pound":
		base = qty * 453.59
	default:
		return nil
	}

	return &base
}

// BuildFingerprint constructs the canonical matching key for an item:
// lower-cased brand, name, size and pack count joined with "|" in that
// fixed order, fields omitted when absent. The result is deterministic
// for identical input.
func BuildFingerprint(item domain.CatalogueItem) domain.Fingerprint {
	parts := make([]string, 0, 4)
	if item.Brand != "" {
		parts = append(parts, strings.ToLower(strings.TrimSpace(item.Brand)))
	}
	parts = append(parts, strings.ToLower(strings.TrimSpace(item.ItemName)))
	if item.Size != "" {
		parts = append(parts, strings.ToLower(strings.TrimSpace(item.Size)))
	}
	if item.PackCount != nil && *item.PackCount > 0 {
		parts = append(parts, strconv.Itoa(*item.PackCount))
	}

	return domain.Fingerprint{
		Key:             strings.Join(parts, "|"),
		SizeInBaseUnits: ParseSize(item.Size),
	}
}
