package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dateRange(n int) []time.Time {
	dates := make([]time.Time, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = base.AddDate(0, 0, i)
	}
	return dates
}

func TestSeriesAccessors(t *testing.T) {
	series := Series[float64]{1, 2, 3, 4}

	assert.Equal(t, 4, series.Length())
	assert.Equal(t, 4.0, series.Last(0))
	assert.Equal(t, 3.0, series.Last(1))
	assert.Equal(t, Series[float64]{3, 4}, series.LastValues(2))
	assert.Equal(t, series, series.LastValues(10))
}

func TestNewPriceSeries(t *testing.T) {
	prices, err := NewPriceSeries(dateRange(2), []string{"A"}, [][]float64{{1, 2}})
	require.NoError(t, err)

	assert.Equal(t, 1, prices.NumAssets())
	assert.Equal(t, 2, prices.Len())

	column, ok := prices.Column("A")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, column)

	_, ok = prices.Column("B")
	assert.False(t, ok)
}

func TestNewPriceSeriesSymbolColumnMismatch(t *testing.T) {
	_, err := NewPriceSeries(dateRange(2), []string{"A", "B"}, [][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNewPriceSeriesNonIncreasingDates(t *testing.T) {
	dates := dateRange(2)
	dates[1] = dates[0]

	_, err := NewPriceSeries(dates, []string{"A"}, [][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrInvalidPriceData)
}

func TestNewPriceSeriesShortColumn(t *testing.T) {
	_, err := NewPriceSeries(dateRange(3), []string{"A"}, [][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrInvalidPriceData)
}

func TestNewPriceSeriesNonFinite(t *testing.T) {
	_, err := NewPriceSeries(dateRange(2), []string{"A"}, [][]float64{{1, math.NaN()}})
	assert.ErrorIs(t, err, ErrInvalidPriceData)

	_, err = NewPriceSeries(dateRange(2), []string{"A"}, [][]float64{{1, math.Inf(1)}})
	assert.ErrorIs(t, err, ErrInvalidPriceData)
}

func TestEqualWeights(t *testing.T) {
	weights := EqualWeights(4)

	require.Len(t, weights, 4)
	assert.InDelta(t, 1.0, weights.Sum(), 1e-9)
	assert.InDelta(t, 0.25, weights[0], 1e-9)
}

func TestAllocationVectorNormalized(t *testing.T) {
	normalized := AllocationVector{2, 2}.Normalized()

	assert.InDelta(t, 0.5, normalized[0], 1e-9)
	assert.InDelta(t, 1.0, normalized.Sum(), 1e-9)

	// Zero-sum vectors cannot be normalized and pass through unchanged.
	zero := AllocationVector{0, 0}.Normalized()
	assert.Equal(t, AllocationVector{0, 0}, zero)
}

func TestAllocationVectorClamped(t *testing.T) {
	clamped := AllocationVector{-0.5, 0.5, 1.5}.Clamped(0, 1)

	assert.Equal(t, AllocationVector{0, 0.5, 1}, clamped)
}
