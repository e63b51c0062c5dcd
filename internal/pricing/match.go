package pricing

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"dzukou/pricer/internal/domain"
)

const (
	titleWeight = 0.6
	brandWeight = 0.2
	sizeWeight  = 0.2

	// Listings scoring below this are discarded silently. The neutral 0.5
	// defaults for unknown brand/size keep sparse listings alive, so a
	// floor on the combined score is what rejects pure-noise candidates.
	matchThreshold = 0.3

	sizeToleranceLow  = 0.9
	sizeToleranceHigh = 1.1
)

var (
	tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)
	numericPattern    = regexp.MustCompile(`[0-9]+\.?[0-9]*`)
)

// MatchListings scores raw competitor listings against a fingerprinted
// catalogue item and returns the plausible matches ordered by descending
// score. Ties keep input order. Degraded listing attributes lower the
// responsible score component instead of failing the listing.
func MatchListings(fp domain.Fingerprint, itemBrand string, listings []domain.RawListing) []domain.MatchedListing {
	matched := make([]domain.MatchedListing, 0, len(listings))

	for _, listing := range listings {
		title := tokenSortSimilarity(fp.Key, listingText(listing))
		brand := brandScore(itemBrand, listing.Brand)
		size := sizeScore(fp.SizeInBaseUnits, listing.Size)

		score := combinedScore(title, brand, size)
		if !retained(score) {
			continue
		}

		matched = append(matched, domain.MatchedListing{
			Listing:    listing,
			MatchScore: score,
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].MatchScore > matched[j].MatchScore
	})

	return matched
}

func combinedScore(title, brand, size float64) float64 {
	return titleWeight*title + brandWeight*brand + sizeWeight*size
}

func retained(score float64) bool {
	return score >= matchThreshold
}

func listingText(listing domain.RawListing) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{listing.Brand, listing.Title, listing.Size, listing.URL} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// brandScore treats absence as neutral: an unknown brand on either side
// scores 0.5 rather than disqualifying the listing.
func brandScore(itemBrand, listingBrand string) float64 {
	if itemBrand == "" || listingBrand == "" {
		return 0.5
	}
	if strings.EqualFold(strings.TrimSpace(itemBrand), strings.TrimSpace(listingBrand)) {
		return 1.0
	}
	return 0.0
}

// sizeScore compares the listing's size against the item's normalized
// size with a ±10% tolerance. Unknown on either side is neutral (0.5); a
// size string that is present but unparseable scores 0.0 because it was
// stated and contradicted. The listing's size string goes through the
// same unit parser as the catalogue side before the ratio comparison,
// falling back to its first bare numeric token.
func sizeScore(itemSize *float64, listingSize string) float64 {
	if itemSize == nil || listingSize == "" {
		return 0.5
	}

	qty := ParseSize(listingSize)
	if qty == nil {
		qty = firstNumericToken(listingSize)
	}
	if qty == nil || *itemSize == 0 {
		return 0.0
	}

	ratio := *qty / *itemSize
	if ratio >= sizeToleranceLow && ratio <= sizeToleranceHigh {
		return 1.0
	}
	return 0.0
}

func firstNumericToken(s string) *float64 {
	match := numericPattern.FindString(s)
	if match == "" {
		return nil
	}
	qty, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &qty
}

// tokenSortSimilarity is a token-order-insensitive normalized similarity
// in [0,1]: both strings are lower-cased, split on non-alphanumeric runs,
// token-sorted and rejoined, then compared with an indel ratio.
func tokenSortSimilarity(a, b string) float64 {
	na := sortedTokenString(a)
	nb := sortedTokenString(b)
	if na == "" && nb == "" {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}
	return indelRatio(na, nb)
}

func sortedTokenString(s string) string {
	tokens := tokenSplitPattern.Split(strings.ToLower(s), -1)
	kept := tokens[:0]
	for _, t := range tokens {
		if t != "" {
			kept = append(kept, t)
		}
	}
	sort.Strings(kept)
	return strings.Join(kept, " ")
}

// indelRatio computes 2*LCS/(len(a)+len(b)) with a two-row DP, the
// normalized similarity under insertions and deletions only.
func indelRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}
