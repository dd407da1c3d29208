package core

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/constraints"
)

// Series is an ordered sequence of values.
type Series[T constraints.Ordered] []T

// Values returns the underlying slice of values.
func (s Series[T]) Values() []T {
	return s
}

// Length returns the number of values in the series.
func (s Series[T]) Length() int {
	return len(s)
}

// Last returns the value at a specified position from the end.
// Position 0 is the last value, 1 is the second-to-last, etc.
func (s Series[T]) Last(position int) T {
	return s[len(s)-1-position]
}

// LastValues returns a slice with the last 'size' values.
// If size exceeds the length, returns the entire series.
func (s Series[T]) LastValues(size int) Series[T] {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// ValueSeries is the daily net value of a portfolio, aligned to the date
// index of the price series it was derived from.
type ValueSeries = Series[float64]

// PriceSeries holds adjusted close prices for a set of instruments over a
// shared, strictly increasing date index. Columns[i][t] is the price of
// Symbols[i] at Dates[t]. The series is treated as immutable once built.
type PriceSeries struct {
	Dates   []time.Time
	Symbols []string
	Columns [][]float64
}

// NewPriceSeries builds a PriceSeries and validates its shape: every column
// must have one finite, positive-length entry per date and the date index
// must be strictly increasing.
func NewPriceSeries(dates []time.Time, symbols []string, columns [][]float64) (*PriceSeries, error) {
	if len(symbols) != len(columns) {
		return nil, fmt.Errorf("%w: %d symbols, %d columns", ErrDimensionMismatch, len(symbols), len(columns))
	}

	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: date index not strictly increasing at %s", ErrInvalidPriceData, dates[i].Format(time.DateOnly))
		}
	}

	for i, column := range columns {
		if len(column) != len(dates) {
			return nil, fmt.Errorf("%w: column %s has %d values for %d dates", ErrInvalidPriceData, symbols[i], len(column), len(dates))
		}
		for _, price := range column {
			if math.IsNaN(price) || math.IsInf(price, 0) {
				return nil, fmt.Errorf("%w: non-finite price for %s", ErrInvalidPriceData, symbols[i])
			}
		}
	}

	return &PriceSeries{Dates: dates, Symbols: symbols, Columns: columns}, nil
}

// NumAssets returns the number of instruments in the series.
func (p *PriceSeries) NumAssets() int {
	return len(p.Symbols)
}

// Len returns the number of trading dates in the series.
func (p *PriceSeries) Len() int {
	return len(p.Dates)
}

// Column returns the price column for the given symbol.
func (p *PriceSeries) Column(symbol string) ([]float64, bool) {
	for i, s := range p.Symbols {
		if s == symbol {
			return p.Columns[i], true
		}
	}
	return nil, false
}

// AllocationVector assigns a fractional weight to each instrument, in the
// same order as the PriceSeries symbol axis.
type AllocationVector []float64

// EqualWeights returns the 1/N allocation for n instruments.
func EqualWeights(n int) AllocationVector {
	weights := make(AllocationVector, n)
	for i := range weights {
		weights[i] = 1.0 / float64(n)
	}
	return weights
}

// Sum returns the total of all weights.
func (a AllocationVector) Sum() float64 {
	var sum float64
	for _, w := range a {
		sum += w
	}
	return sum
}

// Normalized returns a copy of the vector scaled so the weights sum to 1.
// A vector summing to zero is returned unchanged.
func (a AllocationVector) Normalized() AllocationVector {
	sum := a.Sum()
	out := make(AllocationVector, len(a))
	if sum == 0 {
		copy(out, a)
		return out
	}
	for i, w := range a {
		out[i] = w / sum
	}
	return out
}

// Clamped returns a copy of the vector with each weight projected into
// [lower, upper].
func (a AllocationVector) Clamped(lower, upper float64) AllocationVector {
	out := make(AllocationVector, len(a))
	for i, w := range a {
		out[i] = math.Max(lower, math.Min(upper, w))
	}
	return out
}
