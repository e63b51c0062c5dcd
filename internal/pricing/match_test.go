package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dzukou/pricer/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func TestBrandScore(t *testing.T) {
	tests := []struct {
		name         string
		itemBrand    string
		listingBrand string
		expected     float64
	}{
		{"both present and equal", "Acme", "acme", 1.0},
		{"both present with whitespace", "Acme", "  ACME ", 1.0},
		{"both present and unequal", "Acme", "Globex", 0.0},
		{"item brand unknown", "", "Acme", 0.5},
		{"listing brand unknown", "Acme", "", 0.5},
		{"both unknown", "", "", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, brandScore(tt.itemBrand, tt.listingBrand))
		})
	}
}

func TestSizeScore(t *testing.T) {
	tests := []struct {
		name        string
		itemSize    *float64
		listingSize string
		expected    float64
	}{
		{"item size unknown", nil, "500g", 0.5},
		{"listing size absent", fptr(500), "", 0.5},
		{"exact match", fptr(500), "500g", 1.0},
		{"same size in different unit", fptr(500), "0.5kg", 1.0},
		{"lower tolerance edge", fptr(500), "450g", 1.0},
		{"below tolerance", fptr(500), "440g", 0.0},
		{"above tolerance", fptr(500), "560g", 0.0},
		{"bare numeric token", fptr(500), "500", 1.0},
		{"present but unparseable", fptr(500), "oversized", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeScore(tt.itemSize, tt.listingSize))
		})
	}
}

func TestMatchThreshold(t *testing.T) {
	t.Run("exactly at threshold is retained", func(t *testing.T) {
		assert.True(t, retained(0.3))
	})

	t.Run("just below threshold is discarded", func(t *testing.T) {
		assert.False(t, retained(0.2999))
	})

	t.Run("neutral brand and size with zero title overlap stays retained", func(t *testing.T) {
		// 0.6*0 + 0.2*1.0 + 0.2*0.5 lands on the threshold.
		assert.True(t, retained(combinedScore(0, 1.0, 0.5)))
	})

	t.Run("contradicted brand with zero title overlap is discarded", func(t *testing.T) {
		assert.False(t, retained(combinedScore(0, 0, 0.5)))
	})
}

func TestTokenSortSimilarity(t *testing.T) {
	t.Run("identical strings score one", func(t *testing.T) {
		assert.InDelta(t, 1.0, tokenSortSimilarity("acme granola", "acme granola"), 1e-9)
	})

	t.Run("token order is ignored", func(t *testing.T) {
		assert.InDelta(t, 1.0, tokenSortSimilarity("granola acme", "acme granola"), 1e-9)
	})

	t.Run("separators are ignored", func(t *testing.T) {
		assert.InDelta(t, 1.0, tokenSortSimilarity("acme|granola|500g", "acme granola 500g"), 1e-9)
	})

	t.Run("disjoint strings score low", func(t *testing.T) {
		assert.Less(t, tokenSortSimilarity("acme granola", "qqq zzz"), 0.3)
	})
}

func TestMatchListings(t *testing.T) {
	fp := domain.Fingerprint{Key: "acme|organic granola bar|500g", SizeInBaseUnits: fptr(500)}

	t.Run("retains plausible matches and discards noise", func(t *testing.T) {
		listings := []domain.RawListing{
			{Store: "EarthHero", Title: "Acme Organic Granola Bar 500g", Brand: "Acme", Size: "500g", URL: "https://earthhero.example/granola"},
			{Store: "Globex Mart", Title: "XXXXX YYYYY", Brand: "Globex", Size: "40g", URL: "https://globex.example/zzz"},
		}

		matched := MatchListings(fp, "Acme", listings)
		require.Len(t, matched, 1)
		assert.Equal(t, "EarthHero", matched[0].Listing.Store)
		assert.Greater(t, matched[0].MatchScore, 0.7)
	})

	t.Run("orders by descending score with stable ties", func(t *testing.T) {
		listings := []domain.RawListing{
			{Store: "first", Title: "organic granola bar", Size: "500g"},
			{Store: "second", Title: "organic granola bar", Size: "500g"},
			{Store: "best", Title: "acme organic granola bar 500g", Brand: "acme", Size: "500g"},
		}

		matched := MatchListings(fp, "Acme", listings)
		require.Len(t, matched, 3)
		assert.Equal(t, "best", matched[0].Listing.Store)
		assert.Equal(t, "first", matched[1].Listing.Store)
		assert.Equal(t, "second", matched[2].Listing.Store)
		assert.Equal(t, matched[1].MatchScore, matched[2].MatchScore)
	})

	t.Run("score never decreases as title overlap grows", func(t *testing.T) {
		titles := []string{
			"zzz",
			"granola",
			"organic granola",
			"organic granola bar",
			"acme organic granola bar 500g",
		}

		prev := -1.0
		for _, title := range titles {
			listings := []domain.RawListing{{Store: "s", Title: title}}
			score := 0.0
			if matched := MatchListings(domain.Fingerprint{Key: fp.Key}, "", listings); len(matched) == 1 {
				score = matched[0].MatchScore
			} else {
				// Discarded listings scored below the threshold; recompute
				// the raw blend to keep the monotonicity chain comparable.
				score = combinedScore(tokenSortSimilarity(fp.Key, title), 0.5, 0.5)
			}
			assert.GreaterOrEqual(t, score, prev, "title %q", title)
			prev = score
		}
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, MatchListings(fp, "Acme", nil))
	})
}
