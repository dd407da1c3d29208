package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
	assert.Zero(t, Mean(nil))
}

func TestStdDev(t *testing.T) {
	// Sample standard deviation of {2, 4, 4, 4, 5, 5, 7, 9} is ~2.138.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.138, StdDev(values), 1e-3)

	assert.Zero(t, StdDev([]float64{1}))
	assert.Zero(t, StdDev(nil))
}

func TestWinRate(t *testing.T) {
	assert.InDelta(t, 0.75, WinRate([]float64{0.1, 0.0, -0.2, 0.3}), 1e-9)
	assert.Zero(t, WinRate(nil))
}

func TestMeanInterval(t *testing.T) {
	values := []float64{0.01, 0.02, -0.01, 0.03, 0.00, 0.015, -0.005, 0.02}
	interval := MeanInterval(values, 0.95)

	assert.LessOrEqual(t, interval.Lower, interval.Mean)
	assert.GreaterOrEqual(t, interval.Upper, interval.Mean)
	assert.InDelta(t, Mean(values), interval.Mean, 0.01)
	assert.Greater(t, interval.StdDev, 0.0)
}

func TestBootstrapConstantValues(t *testing.T) {
	interval := Bootstrap([]float64{0.5, 0.5, 0.5}, Mean, 100, 0.95)

	assert.InDelta(t, 0.5, interval.Lower, 1e-9)
	assert.InDelta(t, 0.5, interval.Upper, 1e-9)
	assert.InDelta(t, 0.5, interval.Mean, 1e-9)
}

func TestBootstrapEmpty(t *testing.T) {
	assert.Zero(t, Bootstrap(nil, Mean, 100, 0.95))
}
