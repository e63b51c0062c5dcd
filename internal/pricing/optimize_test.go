package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dzukou/pricer/internal/domain"
)

func TestRoundToEnding(t *testing.T) {
	endings := []float64{0.99, 0.95}

	tests := []struct {
		price    float64
		expected float64
	}{
		{12.37, 11.99},
		{15.02, 14.95},
		{12.99, 12.99},
		{12.95, 12.95},
		{9.10, 8.99},
		{19.96, 19.95},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.InDelta(t, tt.expected, RoundToEnding(tt.price, endings), 1e-9)
		})
	}

	t.Run("no endings rounds to cents unchanged", func(t *testing.T) {
		assert.InDelta(t, 12.37, RoundToEnding(12.37, nil), 1e-9)
	})
}

func TestOptimizeRejectsNonPositiveCOGS(t *testing.T) {
	for _, cogs := range []float64{0, -5} {
		_, err := Optimize(cogs, -1.2, nil, nil, 0.10, 100, 0.50, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestOptimizeGuardrails(t *testing.T) {
	t.Run("competitor bounds constrain the search", func(t *testing.T) {
		// cogs=10, floor=0.10, competitor=15: grid spans [12, 18] before
		// snapping; snapping may dip at most a step below the lower edge.
		res, err := Optimize(10, -1.2, nil, fptr(15), 0.10, 100, 0.50, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Price, 11.0)
		assert.LessOrEqual(t, res.Price, 18.0)
		assert.Greater(t, res.Profit, 0.0)
	})

	t.Run("margin floor holds without competitors", func(t *testing.T) {
		res, err := Optimize(10, -1.2, nil, nil, 0.10, 100, 0.50, nil)
		require.NoError(t, err)
		// Reference synthesized as cogs*(1+floor)=11; upper bound 16.5.
		assert.GreaterOrEqual(t, res.Price, 10.9)
		assert.LessOrEqual(t, res.Price, 16.5)
	})

	t.Run("inconsistent guardrails widen the upper bound", func(t *testing.T) {
		// Competitor min of 5 puts the naive upper bound (6) below the
		// margin floor (11); the grid must still be non-empty.
		res, err := Optimize(10, -1.2, nil, fptr(5), 0.10, 100, 0.50, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Price, 10.9)
		assert.LessOrEqual(t, res.Price, 13.2)
	})
}

func TestOptimizeTieBreaksToLowestPrice(t *testing.T) {
	// Zero baseline units flattens the profit curve to zero everywhere,
	// so every grid point ties exactly and the ascending scan must keep
	// the lowest snapped price: the grid starts at 12 (margin floor over
	// cogs), which snaps to 11.95.
	res, err := Optimize(10, -1.2, nil, fptr(15), 0.10, 0, 0.50, nil)
	require.NoError(t, err)

	assert.InDelta(t, 11.95, res.Price, 1e-9)
	assert.Equal(t, 0.0, res.Units)
	assert.Equal(t, 0.0, res.Profit)
}

func TestOptimizeUplift(t *testing.T) {
	t.Run("absent current price yields absent uplift", func(t *testing.T) {
		res, err := Optimize(10, -1.2, nil, fptr(15), 0.10, 100, 0.50, nil)
		require.NoError(t, err)
		assert.Nil(t, res.ProfitUpliftPct)
		assert.Nil(t, res.DemandUpliftPct)
	})

	t.Run("uplift is measured against the current price", func(t *testing.T) {
		res, err := Optimize(10, -1.2, fptr(20), fptr(18), 0.10, 100, 0.50, nil)
		require.NoError(t, err)
		require.NotNil(t, res.ProfitUpliftPct)
		require.NotNil(t, res.DemandUpliftPct)
	})
}

func TestOptimizeEndToEndScenario(t *testing.T) {
	// cogs=10, current=20, one competitor at 18, elasticity -1.2:
	// guardrails are [max(11, 14.4), 21.6] and profit is increasing across
	// that range, so the search lands on the top psychological price.
	res, err := Optimize(10, -1.2, fptr(20), fptr(18), 0.10, 100, 0.50, nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Price, 21.6)
	assert.GreaterOrEqual(t, res.Price, 14.0)
	assert.InDelta(t, 20.99, res.Price, 1e-9)
	assert.Greater(t, res.Units, 0.0)
	assert.Greater(t, res.Profit, 0.0)

	require.NotNil(t, res.ProfitUpliftPct)
	require.NotNil(t, res.DemandUpliftPct)
	assert.Greater(t, *res.ProfitUpliftPct, 0.0)
	assert.Less(t, *res.DemandUpliftPct, 0.0)
}

func TestOptimizeRecommendsPsychologicalEndings(t *testing.T) {
	res, err := Optimize(10, -1.5, fptr(20), fptr(18), 0.10, 100, 0.50, []float64{0.99, 0.95})
	require.NoError(t, err)

	cents := res.Price - float64(int(res.Price))
	assert.True(t, cents > 0.94, "price %v should carry a psychological ending", res.Price)
}
