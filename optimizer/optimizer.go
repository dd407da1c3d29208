// Package optimizer searches the space of valid allocation vectors for the
// one maximizing a risk-adjusted objective, the annualized Sharpe ratio by
// default.
package optimizer

import (
	"fmt"

	"github.com/raykavin/optifolio/core"
	"github.com/raykavin/optifolio/portfolio"
)

// Objective maps the statistics of a candidate portfolio to the scalar being
// maximized. Swapping the objective does not require touching the search.
type Objective func(stats core.PortfolioStats) float64

// MaxSharpe is the default objective.
func MaxSharpe(stats core.PortfolioStats) float64 {
	return stats.SharpeRatio
}

// Config holds configuration for the optimization process
type Config struct {
	// Per-weight bound constraints applied during the search
	LowerBound float64
	UpperBound float64
	// LegacyBounds widens the upper bound to N (the instrument count),
	// reproducing the permissive bound some older tooling used. Weights
	// above 1 can then appear as intermediate states before normalization.
	LegacyBounds bool
	// Annual risk-free rate used in the Sharpe ratio
	RiskFreeRate float64
	// Number of return periods per year (252 for daily data)
	PeriodsPerYear int
	// Initial portfolio net value
	StartValue float64
	// Maximum number of objective evaluations (0 = solver default)
	MaxEvaluations int
	// Weight step of the exhaustive grid search
	GridStep float64
	// Number of parallel evaluations in the grid search
	Parallelism int
	// Objective being maximized
	Objective Objective
	// Logger instance
	Logger core.Logger
}

// NewConfig creates a default configuration: long-only [0, 1] bounds, zero
// risk-free rate, daily annualization.
func NewConfig() *Config {
	return &Config{
		LowerBound:     0,
		UpperBound:     1,
		RiskFreeRate:   0,
		PeriodsPerYear: portfolio.DefaultPeriodsPerYear,
		StartValue:     portfolio.DefaultStartValue,
		MaxEvaluations: 0,
		GridStep:       0.01,
		Parallelism:    1,
		Objective:      MaxSharpe,
	}
}

// WithBounds sets the per-weight bound constraints
func (c *Config) WithBounds(lower, upper float64) *Config {
	c.LowerBound = lower
	c.UpperBound = upper
	return c
}

// WithLegacyBounds enables the permissive [0, N] upper bound
func (c *Config) WithLegacyBounds() *Config {
	c.LegacyBounds = true
	return c
}

// WithRiskFreeRate sets the annual risk-free rate
func (c *Config) WithRiskFreeRate(rate float64) *Config {
	c.RiskFreeRate = rate
	return c
}

// WithPeriodsPerYear sets the number of return periods per year
func (c *Config) WithPeriodsPerYear(periods int) *Config {
	c.PeriodsPerYear = periods
	return c
}

// WithStartValue sets the initial portfolio net value
func (c *Config) WithStartValue(value float64) *Config {
	c.StartValue = value
	return c
}

// WithMaxEvaluations caps the number of objective evaluations
func (c *Config) WithMaxEvaluations(n int) *Config {
	c.MaxEvaluations = n
	return c
}

// WithGridStep sets the weight granularity of the grid search
func (c *Config) WithGridStep(step float64) *Config {
	c.GridStep = step
	return c
}

// WithParallelism sets the number of parallel grid evaluations
func (c *Config) WithParallelism(n int) *Config {
	c.Parallelism = n
	return c
}

// WithObjective replaces the objective being maximized
func (c *Config) WithObjective(objective Objective) *Config {
	c.Objective = objective
	return c
}

// WithLogger sets the logger
func (c *Config) WithLogger(logger core.Logger) *Config {
	c.Logger = logger
	return c
}

// validate checks the configuration against the instrument count and
// resolves the effective bounds.
func (c *Config) validate(numAssets int) (lower, upper float64, err error) {
	if numAssets == 0 {
		return 0, 0, core.ErrEmptyPortfolio
	}

	lower, upper = c.LowerBound, c.UpperBound
	if c.LegacyBounds {
		upper = float64(numAssets)
	}
	if lower >= upper {
		return 0, 0, fmt.Errorf("invalid bounds [%v, %v]", lower, upper)
	}
	if c.Objective == nil {
		c.Objective = MaxSharpe
	}
	return lower, upper, nil
}

// evaluator builds the portfolio evaluator the search uses as its objective
// function core.
func (c *Config) evaluator() *portfolio.Evaluator {
	return portfolio.NewEvaluator().
		WithRiskFreeRate(c.RiskFreeRate).
		WithPeriodsPerYear(c.PeriodsPerYear)
}

func (c *Config) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debugf(format, args...)
	}
}
