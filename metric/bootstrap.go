package metric

import (
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// defaultResamples is the number of bootstrap resamples used by the
// convenience helpers.
const defaultResamples = 10000

// BootstrapInterval is a confidence interval estimated by resampling.
type BootstrapInterval struct {
	Lower  float64 // lower bound of the confidence interval
	Upper  float64 // upper bound of the confidence interval
	StdDev float64 // standard deviation of the bootstrap distribution
	Mean   float64 // mean of the bootstrap distribution
}

// MeanInterval estimates a confidence interval for the mean of the values,
// e.g. the mean daily return of the optimized portfolio.
func MeanInterval(values []float64, confidence float64) BootstrapInterval {
	return Bootstrap(values, Mean, defaultResamples, confidence)
}

// Bootstrap estimates a confidence interval for an arbitrary statistic by
// resampling the values with replacement, applying the measure to each
// resample, and reading the interval off the resulting distribution.
func Bootstrap(values []float64, measure func([]float64) float64, resamples int, confidence float64) BootstrapInterval {
	if len(values) == 0 {
		return BootstrapInterval{}
	}

	data := make([]float64, 0, resamples)
	sample := make([]float64, len(values))
	for i := 0; i < resamples; i++ {
		for j := range sample {
			sample[j] = lo.Sample(values)
		}
		data = append(data, measure(sample))
	}
	sort.Float64s(data)

	tail := 1 - confidence
	mean, stdDev := stat.MeanStdDev(data, nil)

	return BootstrapInterval{
		Lower:  stat.Quantile(tail/2, stat.LinInterp, data, nil),
		Upper:  stat.Quantile(1-tail/2, stat.LinInterp, data, nil),
		StdDev: stdDev,
		Mean:   mean,
	}
}
