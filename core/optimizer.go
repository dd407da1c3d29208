package core

import "time"

// PortfolioStats summarizes the performance of a portfolio value series.
type PortfolioStats struct {
	CumulativeReturn float64 // total return over the observed window
	AvgDailyReturn   float64 // arithmetic mean of daily returns
	Volatility       float64 // sample standard deviation of daily returns
	SharpeRatio      float64 // annualized risk-adjusted return
}

// Result is the outcome of a single optimization run.
type Result struct {
	Weights     AllocationVector // normalized to sum to 1
	Stats       PortfolioStats   // recomputed on the normalized weights
	Converged   bool
	Evaluations int
	Duration    time.Duration
}

// Metrics exposes the stats as a named map, convenient for reporting and
// result sorting.
func (r *Result) Metrics() map[string]float64 {
	return map[string]float64{
		string(MetricSharpeRatio):      r.Stats.SharpeRatio,
		string(MetricCumulativeReturn): r.Stats.CumulativeReturn,
		string(MetricAvgDailyReturn):   r.Stats.AvgDailyReturn,
		string(MetricVolatility):       r.Stats.Volatility,
	}
}

// MetricName defines standard metric names for optimization reports.
type MetricName string

const (
	// MetricSharpeRatio is the annualized Sharpe ratio.
	MetricSharpeRatio MetricName = "sharpe_ratio"
	// MetricCumulativeReturn is the total return over the window.
	MetricCumulativeReturn MetricName = "cumulative_return"
	// MetricAvgDailyReturn is the mean daily return.
	MetricAvgDailyReturn MetricName = "avg_daily_return"
	// MetricVolatility is the standard deviation of daily returns.
	MetricVolatility MetricName = "volatility"
)
