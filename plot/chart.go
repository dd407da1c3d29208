// Package plot renders optimization results as PNG charts.
package plot

import (
	"fmt"
	"os"
	"strings"

	"github.com/vicanso/go-charts/v2"

	"github.com/raykavin/optifolio/core"
	"github.com/raykavin/optifolio/portfolio"
)

const (
	optimizedLabel = "optimized"
	benchmarkLabel = "equal weight"
)

// Chart draws the optimized portfolio value curve against an equal weight
// benchmark over the same price history.
type Chart struct {
	evaluator  *portfolio.Evaluator
	startValue float64
}

// NewChart creates a chart renderer. The evaluator must match the one used
// by the optimizer so the plotted stats line up with the reported ones.
func NewChart(evaluator *portfolio.Evaluator, startValue float64) *Chart {
	return &Chart{evaluator: evaluator, startValue: startValue}
}

// Render produces a PNG comparing the optimized allocation with the equal
// weight benchmark.
func (c *Chart) Render(prices *core.PriceSeries, result *core.Result) ([]byte, error) {
	optimized, err := c.evaluator.ComputeValue(prices, result.Weights, c.startValue)
	if err != nil {
		return nil, fmt.Errorf("computing optimized series: %w", err)
	}

	benchmark, err := c.evaluator.ComputeValue(prices, core.EqualWeights(prices.NumAssets()), c.startValue)
	if err != nil {
		return nil, fmt.Errorf("computing benchmark series: %w", err)
	}

	values := [][]float64{optimized.Values(), benchmark.Values()}
	xLabels := dateLabels(prices)
	yMin, yMax := valueRange(values)

	title := fmt.Sprintf("Portfolio (%s)", strings.Join(composition(prices.Symbols, result.Weights), ", "))
	subtitle := fmt.Sprintf("Return: %.2f%% | Sharpe: %.2f | Vol: %.4f",
		result.Stats.CumulativeReturn*100, result.Stats.SharpeRatio, result.Stats.Volatility)

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(title+"\n"+subtitle),
		charts.LegendLabelsOptionFunc([]string{optimizedLabel, benchmarkLabel}),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	return buf, nil
}

// RenderFile renders the chart and writes it to path.
func (c *Chart) RenderFile(prices *core.PriceSeries, result *core.Result, path string) error {
	buf, err := c.Render(prices, result)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// dateLabels formats the x axis, coarser for long histories.
func dateLabels(prices *core.PriceSeries) []string {
	layout := "Jan 02"
	if prices.Len() > 60 {
		layout = "Jan '06"
	}

	labels := make([]string, prices.Len())
	for i, date := range prices.Dates {
		labels[i] = date.Format(layout)
	}
	return labels
}

// valueRange pads the y axis by 5% around the observed values.
func valueRange(series [][]float64) (float64, float64) {
	minVal, maxVal := series[0][0], series[0][0]
	for _, values := range series {
		for _, val := range values {
			if val < minVal {
				minVal = val
			}
			if val > maxVal {
				maxVal = val
			}
		}
	}

	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	return minVal - padding, maxVal + padding
}

// composition labels each symbol with its weight share.
func composition(symbols []string, weights core.AllocationVector) []string {
	parts := make([]string, 0, len(symbols))
	for i, symbol := range symbols {
		parts = append(parts, fmt.Sprintf("%s %.1f%%", symbol, weights[i]*100))
	}
	return parts
}
