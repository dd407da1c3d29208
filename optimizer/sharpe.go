package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/optifolio/core"
	"gonum.org/v1/gonum/optimize"
)

// penaltyWeight scales the quadratic penalty that encodes the full-investment
// equality constraint sum(w) == 1.
const penaltyWeight = 1000.0

// badCandidate is the objective value assigned to candidates whose stats are
// undefined (flat value series). Finite so the simplex can move away from it.
const badCandidate = 1e10

// SharpeSearch finds the allocation maximizing the configured objective with
// a constrained nonlinear local search: bounds by projection, the equality
// constraint by penalty, Nelder-Mead with a BFGS fallback. The search is
// local; starting from equal weights is a sane default, not a global
// guarantee.
type SharpeSearch struct {
	config *Config
}

// NewSharpeSearch creates a new gradient-free allocation search
func NewSharpeSearch(config *Config) *SharpeSearch {
	if config == nil {
		config = NewConfig()
	}
	return &SharpeSearch{config: config}
}

// Optimize runs the search and returns the normalized best allocation with
// its recomputed statistics. On non-convergence the best iterate found is
// still returned, with Converged set to false and core.ErrNotConverged as
// the error.
func (s *SharpeSearch) Optimize(ctx context.Context, prices *core.PriceSeries) (*core.Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := prices.NumAssets()
	lower, upper, err := s.config.validate(n)
	if err != nil {
		return nil, err
	}

	eval := s.config.evaluator()

	// One instrument admits exactly one feasible allocation.
	if n == 1 {
		return s.finalize(prices, core.AllocationVector{1.0}, true, 1, start)
	}

	objective := func(x []float64) float64 {
		allocation := core.AllocationVector(x).Clamped(lower, upper)

		values, err := eval.ComputeValue(prices, allocation, s.config.StartValue)
		if err != nil {
			return badCandidate
		}
		stats, err := eval.ComputeStats(values)
		if err != nil {
			return badCandidate
		}

		sum := allocation.Sum()
		return -s.config.Objective(stats) + penaltyWeight*(sum-1)*(sum-1)
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{FuncEvaluations: s.config.MaxEvaluations}
	initial := core.EqualWeights(n)

	evaluations := 0
	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if result != nil {
		evaluations += result.Stats.FuncEvaluations
	}

	if err != nil || !converged(result.Status) {
		// Retry with a quasi-Newton method; the gradient is estimated by
		// finite differences since no closed form is available.
		s.config.logf("nelder-mead did not converge, retrying with bfgs")
		retry, retryErr := optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
		if retry != nil {
			evaluations += retry.Stats.FuncEvaluations
		}
		if retryErr == nil && converged(retry.Status) {
			result, err = retry, nil
		} else if result == nil || result.X == nil {
			result, err = retry, retryErr
		}
	}

	if result == nil || result.X == nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNotConverged, err)
	}

	ok := err == nil && converged(result.Status)
	final, ferr := s.finalize(prices, core.AllocationVector(result.X).Clamped(lower, upper), ok, evaluations, start)
	if ferr != nil {
		return nil, ferr
	}
	if !ok {
		return final, fmt.Errorf("%w: status=%v", core.ErrNotConverged, result.Status)
	}
	return final, nil
}

// finalize normalizes the raw solver output so it sums exactly to 1 and
// recomputes the reported statistics on the normalized vector, not the one
// used internally during the search.
func (s *SharpeSearch) finalize(prices *core.PriceSeries, allocation core.AllocationVector, ok bool, evaluations int, start time.Time) (*core.Result, error) {
	weights := allocation.Normalized()

	eval := s.config.evaluator()
	values, err := eval.ComputeValue(prices, weights, s.config.StartValue)
	if err != nil {
		return nil, err
	}
	stats, err := eval.ComputeStats(values)
	if err != nil {
		return nil, err
	}

	return &core.Result{
		Weights:     weights,
		Stats:       stats,
		Converged:   ok,
		Evaluations: evaluations,
		Duration:    time.Since(start),
	}, nil
}

// converged reports whether the solver status counts as success
func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	}
	return false
}
