package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dzukou/pricer/internal/domain"
)

func matchedWithPrice(price float64) domain.MatchedListing {
	return domain.MatchedListing{MatchScore: 0.9, EffectivePrice: &price}
}

func TestAggregateFeatures(t *testing.T) {
	t.Run("no priced listings yields the empty signal state", func(t *testing.T) {
		features := AggregateFeatures(fptr(20), []domain.MatchedListing{
			{MatchScore: 0.8}, // no effective price
		})

		assert.Nil(t, features.MinCompetitor)
		assert.Nil(t, features.MedianCompetitor)
		assert.Nil(t, features.MaxCompetitor)
		assert.Nil(t, features.Spread)
		assert.Nil(t, features.CompetitorIndex)
		assert.Nil(t, features.UndercutPct)
		assert.Equal(t, 0, features.NumCompetitors)
	})

	t.Run("computes summary statistics", func(t *testing.T) {
		features := AggregateFeatures(fptr(20), []domain.MatchedListing{
			matchedWithPrice(18),
			matchedWithPrice(22),
			matchedWithPrice(25),
		})

		require.NotNil(t, features.MinCompetitor)
		assert.InDelta(t, 18, *features.MinCompetitor, 1e-9)
		assert.InDelta(t, 22, *features.MedianCompetitor, 1e-9)
		assert.InDelta(t, 25, *features.MaxCompetitor, 1e-9)
		assert.InDelta(t, 7, *features.Spread, 1e-9)
		assert.Equal(t, 3, features.NumCompetitors)

		require.NotNil(t, features.CompetitorIndex)
		assert.InDelta(t, 0.9, *features.CompetitorIndex, 1e-9)
		assert.InDelta(t, 0.1, *features.UndercutPct, 1e-9)
	})

	t.Run("median averages the middle pair for even counts", func(t *testing.T) {
		features := AggregateFeatures(nil, []domain.MatchedListing{
			matchedWithPrice(10),
			matchedWithPrice(30),
			matchedWithPrice(20),
			matchedWithPrice(40),
		})

		require.NotNil(t, features.MedianCompetitor)
		assert.InDelta(t, 25, *features.MedianCompetitor, 1e-9)
	})

	t.Run("competitor index needs a positive current price", func(t *testing.T) {
		for name, current := range map[string]*float64{
			"unknown current price": nil,
			"zero current price":    fptr(0),
		} {
			t.Run(name, func(t *testing.T) {
				features := AggregateFeatures(current, []domain.MatchedListing{matchedWithPrice(18)})
				assert.Nil(t, features.CompetitorIndex)
				assert.Nil(t, features.UndercutPct)
				assert.Equal(t, 1, features.NumCompetitors)
			})
		}
	})
}
