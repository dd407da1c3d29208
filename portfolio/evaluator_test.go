package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/optifolio/core"
)

func testSeries(t *testing.T, symbols []string, columns [][]float64) *core.PriceSeries {
	t.Helper()

	dates := make([]time.Time, len(columns[0]))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = base.AddDate(0, 0, i)
	}

	prices, err := core.NewPriceSeries(dates, symbols, columns)
	require.NoError(t, err)
	return prices
}

func TestComputeValueStartsAtStartValue(t *testing.T) {
	prices := testSeries(t, []string{"A", "B"}, [][]float64{
		{10, 11, 12},
		{20, 19, 21},
	})

	values, err := NewEvaluator().ComputeValue(prices, core.AllocationVector{0.5, 0.5}, 1000)
	require.NoError(t, err)

	assert.InDelta(t, 1000.0, values[0], 1e-9)
}

func TestComputeValueWeightsScaleEachColumn(t *testing.T) {
	prices := testSeries(t, []string{"A", "B"}, [][]float64{
		{10, 20}, // doubles
		{10, 5},  // halves
	})

	values, err := NewEvaluator().ComputeValue(prices, core.AllocationVector{1, 0}, 100)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, values.Last(0), 1e-9)

	values, err = NewEvaluator().ComputeValue(prices, core.AllocationVector{0, 1}, 100)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, values.Last(0), 1e-9)

	values, err = NewEvaluator().ComputeValue(prices, core.AllocationVector{0.5, 0.5}, 100)
	require.NoError(t, err)
	assert.InDelta(t, 125.0, values.Last(0), 1e-9)
}

func TestComputeValueEmptyDateIndex(t *testing.T) {
	prices, err := core.NewPriceSeries([]time.Time{}, []string{"A"}, [][]float64{{}})
	require.NoError(t, err)

	_, err = NewEvaluator().ComputeValue(prices, core.AllocationVector{1}, 1)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestComputeValueZeroFirstPrice(t *testing.T) {
	prices := testSeries(t, []string{"A"}, [][]float64{{0, 1}})

	_, err := NewEvaluator().ComputeValue(prices, core.AllocationVector{1}, 1)
	assert.ErrorIs(t, err, core.ErrInvalidPriceData)
}

func TestComputeValueDimensionMismatch(t *testing.T) {
	prices := testSeries(t, []string{"A", "B"}, [][]float64{
		{10, 11},
		{20, 21},
	})

	_, err := NewEvaluator().ComputeValue(prices, core.AllocationVector{1}, 1)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestComputeStatsIncreasingSeries(t *testing.T) {
	values := core.ValueSeries{1.0, 1.1, 1.21}

	stats, err := NewEvaluator().ComputeStats(values)
	require.NoError(t, err)

	assert.InDelta(t, 0.21, stats.CumulativeReturn, 1e-9)
	assert.InDelta(t, 0.10, stats.AvgDailyReturn, 1e-9)
	assert.Greater(t, stats.SharpeRatio, 0.0)
}

func TestComputeStatsDecreasingSeries(t *testing.T) {
	values := core.ValueSeries{1.0, 0.9, 0.8}

	stats, err := NewEvaluator().ComputeStats(values)
	require.NoError(t, err)

	assert.Less(t, stats.CumulativeReturn, 0.0)
	assert.Less(t, stats.SharpeRatio, 0.0)
}

func TestComputeStatsValues(t *testing.T) {
	// Hand-checked: returns are 2% and -1%, mean 0.5%, sample stdev is
	// sqrt(((0.015)^2 + (0.015)^2) / 1) with ddof = 1.
	values := core.ValueSeries{1.0, 1.02, 1.0098}

	stats, err := NewEvaluator().ComputeStats(values)
	require.NoError(t, err)

	mean := 0.005
	stdev := math.Sqrt(2*0.015*0.015) / 1
	expected := math.Sqrt(252) * mean / stdev

	assert.InDelta(t, 0.005, stats.AvgDailyReturn, 1e-9)
	assert.InDelta(t, stdev, stats.Volatility, 1e-9)
	assert.InDelta(t, expected, stats.SharpeRatio, 1e-9)
}

func TestComputeStatsRiskFreeRateLowersSharpe(t *testing.T) {
	values := core.ValueSeries{1.0, 1.02, 1.01, 1.05}

	base, err := NewEvaluator().ComputeStats(values)
	require.NoError(t, err)

	discounted, err := NewEvaluator().WithRiskFreeRate(0.05).ComputeStats(values)
	require.NoError(t, err)

	assert.Less(t, discounted.SharpeRatio, base.SharpeRatio)
}

func TestComputeStatsInsufficientData(t *testing.T) {
	_, err := NewEvaluator().ComputeStats(core.ValueSeries{1.0})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = NewEvaluator().ComputeStats(core.ValueSeries{})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestComputeStatsDegenerateVolatility(t *testing.T) {
	stats, err := NewEvaluator().ComputeStats(core.ValueSeries{1.0, 1.0, 1.0})

	assert.ErrorIs(t, err, core.ErrDegenerateVolatility)
	assert.Zero(t, stats.Volatility)
	assert.Zero(t, stats.CumulativeReturn)
}

func TestDailyReturns(t *testing.T) {
	returns := DailyReturns(core.ValueSeries{1.0, 1.1, 0.99})

	require.Len(t, returns, 2)
	assert.InDelta(t, 0.1, returns[0], 1e-9)
	assert.InDelta(t, -0.1, returns[1], 1e-9)

	assert.Nil(t, DailyReturns(core.ValueSeries{1.0}))
}
