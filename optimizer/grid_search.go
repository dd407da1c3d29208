package optimizer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/raykavin/optifolio/core"
)

// GridSearch evaluates every allocation on the simplex grid of the
// configured step and keeps the best. It is exhaustive within the grid, so
// it doubles as a brute-force cross-check for the local search, at a cost
// that grows quickly with the instrument count.
type GridSearch struct {
	config *Config
}

// NewGridSearch creates a new exhaustive simplex search
func NewGridSearch(config *Config) (*GridSearch, error) {
	if config == nil {
		config = NewConfig()
	}
	if config.GridStep <= 0 || config.GridStep > 1 {
		return nil, fmt.Errorf("invalid grid step %v", config.GridStep)
	}
	return &GridSearch{config: config}, nil
}

// Optimize runs the grid search optimization process
func (g *GridSearch) Optimize(ctx context.Context, prices *core.PriceSeries) (*core.Result, error) {
	start := time.Now()

	n := prices.NumAssets()
	lower, upper, err := g.config.validate(n)
	if err != nil {
		return nil, err
	}

	candidates := g.generateAllocations(n, lower, upper)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no feasible allocation within bounds [%v, %v]", lower, upper)
	}
	if g.config.MaxEvaluations > 0 && len(candidates) > g.config.MaxEvaluations {
		g.config.logf("limiting grid allocations from %d to %d", len(candidates), g.config.MaxEvaluations)
		candidates = candidates[:g.config.MaxEvaluations]
	}
	g.config.logf("starting grid search with %d allocations", len(candidates))

	best, evaluations, err := g.runEvaluations(ctx, prices, candidates)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, fmt.Errorf("%w: every grid allocation was degenerate", core.ErrDegenerateVolatility)
	}

	best.Converged = true
	best.Evaluations = evaluations
	best.Duration = time.Since(start)
	return best, nil
}

// generateAllocations enumerates the weight vectors with entries that are
// multiples of the grid step, sum to 1, and respect the bounds.
func (g *GridSearch) generateAllocations(n int, lower, upper float64) []core.AllocationVector {
	steps := int(math.Round(1 / g.config.GridStep))

	var out []core.AllocationVector
	current := make([]int, n)

	var build func(asset, remaining int)
	build = func(asset, remaining int) {
		if asset == n-1 {
			current[asset] = remaining
			weight := float64(remaining) / float64(steps)
			if weight >= lower && weight <= upper {
				allocation := make(core.AllocationVector, n)
				for i, units := range current {
					allocation[i] = float64(units) / float64(steps)
				}
				out = append(out, allocation)
			}
			return
		}
		for units := 0; units <= remaining; units++ {
			weight := float64(units) / float64(steps)
			if weight < lower || weight > upper {
				continue
			}
			current[asset] = units
			build(asset+1, remaining-units)
		}
	}
	build(0, steps)

	return out
}

// runEvaluations scores every candidate allocation and returns the best one
func (g *GridSearch) runEvaluations(ctx context.Context, prices *core.PriceSeries, candidates []core.AllocationVector) (*core.Result, int, error) {
	parallelism := g.config.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	var (
		mutex       sync.Mutex
		wg          sync.WaitGroup
		semaphore   = make(chan struct{}, parallelism)
		best        *core.Result
		bestScore   = math.Inf(-1)
		evaluations int
	)

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			wg.Wait()
			return best, evaluations, ctx.Err()
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(allocation core.AllocationVector) {
			defer wg.Done()
			defer func() { <-semaphore }()

			// Each evaluation is a pure function of the candidate and the
			// read-only price history, so they are safe to run in parallel.
			eval := g.config.evaluator()
			values, err := eval.ComputeValue(prices, allocation, g.config.StartValue)
			if err != nil {
				return
			}
			stats, err := eval.ComputeStats(values)

			mutex.Lock()
			defer mutex.Unlock()
			evaluations++
			if err != nil {
				return
			}
			if score := g.config.Objective(stats); score > bestScore {
				bestScore = score
				best = &core.Result{Weights: allocation.Normalized(), Stats: stats}
			}
		}(candidate)
	}

	wg.Wait()
	return best, evaluations, nil
}
