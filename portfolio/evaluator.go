// Package portfolio computes daily portfolio value series and their summary
// statistics. It performs no I/O and holds no mutable state: every method is
// a pure function of its inputs.
package portfolio

import (
	"fmt"
	"math"

	"github.com/raykavin/optifolio/core"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultPeriodsPerYear is the trading-day count used to annualize the
	// Sharpe ratio of daily returns.
	DefaultPeriodsPerYear = 252

	// DefaultStartValue is the initial net value of the simulated portfolio.
	DefaultStartValue = 1.0
)

// Evaluator maps a price history and an allocation vector to a portfolio
// value series and its statistics.
type Evaluator struct {
	riskFreeRate   float64
	periodsPerYear int
}

// NewEvaluator creates an evaluator with a zero risk-free rate and daily
// annualization.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		riskFreeRate:   0,
		periodsPerYear: DefaultPeriodsPerYear,
	}
}

// WithRiskFreeRate sets the annual risk-free rate used in the Sharpe ratio.
func (e *Evaluator) WithRiskFreeRate(rate float64) *Evaluator {
	e.riskFreeRate = rate
	return e
}

// WithPeriodsPerYear sets the number of return periods per year.
func (e *Evaluator) WithPeriodsPerYear(periods int) *Evaluator {
	e.periodsPerYear = periods
	return e
}

// ComputeValue produces the daily net value of a portfolio. Each instrument
// is normalized by its first price, scaled by startValue times its weight,
// and the scaled series are summed per date. The allocation is used as
// given; normalizing it to sum to 1 is the caller's policy.
func (e *Evaluator) ComputeValue(prices *core.PriceSeries, allocation core.AllocationVector, startValue float64) (core.ValueSeries, error) {
	if len(allocation) != prices.NumAssets() {
		return nil, fmt.Errorf("%w: %d weights for %d instruments",
			core.ErrDimensionMismatch, len(allocation), prices.NumAssets())
	}
	if prices.Len() == 0 {
		return nil, fmt.Errorf("%w: empty date index", core.ErrInsufficientData)
	}

	values := make(core.ValueSeries, prices.Len())
	for i, column := range prices.Columns {
		base := column[0]
		if base == 0 || math.IsNaN(base) || math.IsInf(base, 0) {
			return nil, fmt.Errorf("%w: first price of %s is %v",
				core.ErrInvalidPriceData, prices.Symbols[i], base)
		}

		scale := startValue * allocation[i] / base
		for t, price := range column {
			values[t] += price * scale
		}
	}

	return values, nil
}

// ComputeStats derives the summary statistics of a value series.
//
// Volatility is the sample standard deviation (ddof = 1) of daily returns,
// matching common financial tooling. A flat series has zero volatility and
// fails with ErrDegenerateVolatility rather than reporting an infinite
// Sharpe ratio.
func (e *Evaluator) ComputeStats(values core.ValueSeries) (core.PortfolioStats, error) {
	if values.Length() < 2 {
		return core.PortfolioStats{}, fmt.Errorf("%w: %d value points", core.ErrInsufficientData, values.Length())
	}

	returns := DailyReturns(values)
	mean := stat.Mean(returns, nil)
	volatility := stat.StdDev(returns, nil)

	stats := core.PortfolioStats{
		CumulativeReturn: values.Last(0)/values[0] - 1,
		AvgDailyReturn:   mean,
		Volatility:       volatility,
	}

	if volatility == 0 || math.IsNaN(volatility) {
		return stats, fmt.Errorf("%w: flat value series", core.ErrDegenerateVolatility)
	}

	periodicRiskFree := e.riskFreeRate / float64(e.periodsPerYear)
	stats.SharpeRatio = math.Sqrt(float64(e.periodsPerYear)) * (mean - periodicRiskFree) / volatility

	return stats, nil
}

// DailyReturns converts a value series into its single-period percentage
// changes. The first value has no defined return and is excluded, so the
// result has len(values)-1 entries.
func DailyReturns(values core.ValueSeries) []float64 {
	if values.Length() < 2 {
		return nil
	}

	returns := make([]float64, values.Length()-1)
	for t := 1; t < values.Length(); t++ {
		returns[t-1] = values[t]/values[t-1] - 1
	}
	return returns
}
