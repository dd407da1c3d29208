// Package optifolio assembles price providers, the Sharpe optimizer and the
// reporting surfaces into a single allocation study.
package optifolio

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"

	"github.com/raykavin/optifolio/core"
	"github.com/raykavin/optifolio/feed"
	"github.com/raykavin/optifolio/metric"
	"github.com/raykavin/optifolio/plot"
	"github.com/raykavin/optifolio/portfolio"
)

const bootstrapConfidence = 0.95

// Settings defines the study universe and observation window.
type Settings struct {
	Symbols []string
	Start   time.Time
	End     time.Time
}

// Optifolio runs one allocation study end to end: fetch prices, optimize
// the allocation and fan the result out to the configured surfaces.
type Optifolio struct {
	settings  Settings
	provider  core.PriceProvider
	optimizer core.Optimizer
	storage   core.PriceStorage
	notifier  core.Notifier
	telegram  core.NotifierWithStart
	chartFile string
	evaluator *portfolio.Evaluator
	logger    core.Logger

	prices *core.PriceSeries
	result *core.Result
}

// New creates a study over the given provider and optimizer.
func New(settings Settings, provider core.PriceProvider, optimizer core.Optimizer, options ...Option) (*Optifolio, error) {
	if len(settings.Symbols) == 0 {
		return nil, core.ErrEmptyPortfolio
	}
	if !settings.End.After(settings.Start) {
		return nil, fmt.Errorf("invalid window: start %s, end %s",
			settings.Start.Format(time.DateOnly), settings.End.Format(time.DateOnly))
	}

	study := &Optifolio{
		settings:  settings,
		provider:  provider,
		optimizer: optimizer,
		evaluator: portfolio.NewEvaluator(),
		logger:    DefaultLog,
	}

	for _, option := range options {
		option(study)
	}

	// A storage turns a bar source provider into a read-through cache.
	if study.storage != nil {
		if source, ok := provider.(feed.BarSource); ok {
			study.provider = feed.NewCached(source, study.storage, study.logger)
		} else {
			study.logger.Warn("storage configured but provider is not a bar source, caching disabled")
		}
	}

	if study.telegram != nil {
		study.telegram.Start()
	}

	return study, nil
}

// Run executes the study. The result is kept for Summary and SaveReturns.
// A non-converged optimization still produces a result; the wrapped error
// is passed through so the caller can decide whether to trust it.
func (o *Optifolio) Run(ctx context.Context) (*core.Result, error) {
	o.logger.WithFields(map[string]any{
		"symbols": o.settings.Symbols,
		"start":   o.settings.Start.Format(time.DateOnly),
		"end":     o.settings.End.Format(time.DateOnly),
	}).Info("Starting allocation study")

	prices, err := o.provider.Prices(ctx, o.settings.Symbols, o.settings.Start, o.settings.End)
	if err != nil {
		o.notifyError(err)
		return nil, err
	}
	o.prices = prices

	result, err := o.optimizer.Optimize(ctx, prices)
	if result == nil || (err != nil && !errors.Is(err, core.ErrNotConverged)) {
		o.notifyError(err)
		return nil, err
	}
	o.result = result

	o.logger.WithFields(map[string]any{
		"sharpe":      fmt.Sprintf("%.4f", result.Stats.SharpeRatio),
		"converged":   result.Converged,
		"evaluations": result.Evaluations,
	}).Info("Optimization finished")

	if o.notifier != nil {
		o.notifier.OnResult(result)
	}

	if o.chartFile != "" {
		chart := plot.NewChart(o.evaluator, portfolio.DefaultStartValue)
		if chartErr := chart.RenderFile(prices, result, o.chartFile); chartErr != nil {
			o.logger.WithError(chartErr).Error("failed to render chart")
		}
	}

	return result, err
}

// Result returns the outcome of the last run.
func (o *Optifolio) Result() *core.Result {
	return o.result
}

// Summary prints the allocation table, the metric table, a histogram of the
// optimized portfolio's daily returns and a bootstrap confidence interval
// for the mean daily return.
func (o *Optifolio) Summary() {
	if o.result == nil || o.prices == nil {
		fmt.Println("No optimization run registered.")
		return
	}

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Symbol", "Weight"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)
	for i, symbol := range o.prices.Symbols {
		table.Append([]string{symbol, fmt.Sprintf("%.2f %%", o.result.Weights[i]*100)})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%.2f %%", o.result.Weights.Sum()*100)})
	table.Render()

	metrics := tablewriter.NewWriter(buffer)
	metrics.SetHeader([]string{"Sharpe", "Cum. Return", "Avg Daily", "Volatility", "Evaluations", "Duration"})
	metrics.Append([]string{
		fmt.Sprintf("%.4f", o.result.Stats.SharpeRatio),
		fmt.Sprintf("%.2f %%", o.result.Stats.CumulativeReturn*100),
		fmt.Sprintf("%.4f %%", o.result.Stats.AvgDailyReturn*100),
		fmt.Sprintf("%.4f", o.result.Stats.Volatility),
		strconv.Itoa(o.result.Evaluations),
		o.result.Duration.Round(time.Millisecond).String(),
	})
	metrics.Render()

	fmt.Println(buffer.String())

	returns := o.dailyReturns()
	if len(returns) == 0 {
		return
	}

	fmt.Println("------ DAILY RETURN -------")
	returnsPercent := make([]float64, len(returns))
	for i, p := range returns {
		returnsPercent[i] = p * 100
	}
	hist := histogram.Hist(15, returnsPercent)
	histogram.Fprint(os.Stdout, hist, histogram.Linear(10))
	fmt.Printf("WIN RATE: %.1f %%\n", metric.WinRate(returns)*100)
	fmt.Println()

	fmt.Printf("------ CONFIDENCE INTERVAL (%.0f%%) -------\n", bootstrapConfidence*100)
	interval := metric.MeanInterval(returns, bootstrapConfidence)
	fmt.Printf("AVG DAILY RETURN: %.4f%% (%.4f%% ~ %.4f%%)\n",
		interval.Mean*100, interval.Lower*100, interval.Upper*100)
	fmt.Println()
}

// SaveReturns writes the optimized portfolio's value series and daily
// returns to a CSV file.
func (o *Optifolio) SaveReturns(outputFile string) error {
	if o.result == nil || o.prices == nil {
		return errors.New("no optimization run registered")
	}

	values, err := o.values()
	if err != nil {
		return err
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"date", "value", "daily_return"}); err != nil {
		return err
	}

	for t, date := range o.prices.Dates {
		dailyReturn := 0.0
		if t > 0 {
			dailyReturn = values[t]/values[t-1] - 1
		}
		record := []string{
			date.Format(time.DateOnly),
			strconv.FormatFloat(values[t], 'f', -1, 64),
			strconv.FormatFloat(dailyReturn, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// values recomputes the optimized portfolio value series.
func (o *Optifolio) values() (core.ValueSeries, error) {
	return o.evaluator.ComputeValue(o.prices, o.result.Weights, portfolio.DefaultStartValue)
}

// dailyReturns returns the optimized portfolio's daily returns, or nil when
// the series cannot be computed.
func (o *Optifolio) dailyReturns() []float64 {
	values, err := o.values()
	if err != nil {
		o.logger.WithError(err).Error("failed to compute value series")
		return nil
	}
	return portfolio.DailyReturns(values)
}

func (o *Optifolio) notifyError(err error) {
	o.logger.WithError(err).Error("allocation study failed")
	if o.notifier != nil {
		o.notifier.OnError(err)
	}
}
