// Package metric provides the statistical helpers used by the report layer.
package metric

import (
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of the values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev calculates the sample standard deviation of the values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// WinRate calculates the fraction of non-negative values.
func WinRate(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	wins := 0
	for _, value := range values {
		if value >= 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(values))
}
