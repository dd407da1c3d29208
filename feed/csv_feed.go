// Package feed provides price data providers for the allocation optimizer.
// Every provider returns dense, date-aligned series: gap handling lives
// here, never in the optimizer core.
package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/optifolio/core"
)

var (
	// ErrSymbolNotFound is returned when a requested symbol has no feed
	ErrSymbolNotFound = errors.New("symbol not found in feed")

	// ErrEmptyRange is returned when no prices fall inside the requested range
	ErrEmptyRange = errors.New("no prices in requested range")

	// defaultHeaderMap defines the standard CSV column mapping
	defaultHeaderMap = map[string]int{"date": 0, "close": 1}

	// aliasHeaders maps alternative column names onto the standard ones
	aliasHeaders = map[string]string{"time": "date", "adj_close": "close", "adjclose": "close"}
)

const dailyTimeframe = "1d"

// SymbolFile points a symbol at its CSV price history.
type SymbolFile struct {
	Symbol    string
	File      string
	Timeframe string // bar timeframe of the file, defaults to 1d
}

// CSVFeed implements core.PriceProvider over local CSV files, resampling
// intraday bars to daily closes when needed.
type CSVFeed struct {
	files map[string]SymbolFile
	bars  map[string][]core.PriceBar
}

// NewCSVFeed reads and indexes all symbol files up front.
func NewCSVFeed(files ...SymbolFile) (*CSVFeed, error) {
	feed := &CSVFeed{
		files: make(map[string]SymbolFile),
		bars:  make(map[string][]core.PriceBar),
	}

	for _, file := range files {
		if file.Timeframe == "" {
			file.Timeframe = dailyTimeframe
		}

		bars, err := readBarsFromCSV(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file.File, err)
		}

		bars, err = resampleDaily(bars, file.Timeframe)
		if err != nil {
			return nil, err
		}

		feed.files[file.Symbol] = file
		feed.bars[file.Symbol] = bars
	}

	return feed, nil
}

// Prices implements core.PriceProvider.
func (f *CSVFeed) Prices(ctx context.Context, symbols []string, start, end time.Time) (*core.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := dedupeSymbols(symbols)
	if len(ordered) == 0 {
		return nil, core.ErrEmptyPortfolio
	}

	for _, symbol := range ordered {
		if _, ok := f.bars[symbol]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
	}

	return buildSeries(ordered, f.bars, start, end)
}

// resampleDaily reduces intraday bars to one bar per day, keeping the last
// close. Daily and coarser input is passed through.
func resampleDaily(bars []core.PriceBar, timeframe string) ([]core.PriceBar, error) {
	interval, err := str2duration.ParseDuration(timeframe)
	if err != nil {
		return nil, fmt.Errorf("invalid timeframe %q: %w", timeframe, err)
	}
	if interval >= 24*time.Hour {
		return bars, nil
	}

	daily := make([]core.PriceBar, 0, len(bars))
	for _, bar := range bars {
		day := bar.Date.Truncate(24 * time.Hour)
		if n := len(daily); n > 0 && daily[n-1].Date.Equal(day) {
			daily[n-1].Close = bar.Close
			continue
		}
		daily = append(daily, core.PriceBar{Symbol: bar.Symbol, Date: day, Close: bar.Close})
	}
	return daily, nil
}

// readBarsFromCSV reads and parses a symbol's CSV file.
func readBarsFromCSV(file SymbolFile) ([]core.PriceBar, error) {
	csvFile, err := os.Open(file.File)
	if err != nil {
		return nil, err
	}
	defer csvFile.Close()

	lines, err := csv.NewReader(csvFile).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, core.ErrInsufficientData
	}

	headerMap, hasHeader := parseHeader(lines[0])
	if hasHeader {
		lines = lines[1:]
	}

	bars := make([]core.PriceBar, 0, len(lines))
	for _, line := range lines {
		bar, err := parseBarFromLine(line, headerMap, file.Symbol)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// parseHeader resolves the column layout. Files without a header row use
// the default date,close layout.
func parseHeader(fields []string) (map[string]int, bool) {
	if _, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
		return defaultHeaderMap, false
	}

	headerMap := make(map[string]int, len(fields))
	for i, field := range fields {
		name := strings.ToLower(strings.TrimSpace(field))
		if canonical, ok := aliasHeaders[name]; ok {
			name = canonical
		}
		headerMap[name] = i
	}
	return headerMap, true
}

// parseBarFromLine converts a CSV record into a price bar. Dates may be
// either calendar dates or unix timestamps.
func parseBarFromLine(line []string, headerMap map[string]int, symbol string) (core.PriceBar, error) {
	dateCol, ok := headerMap["date"]
	if !ok {
		return core.PriceBar{}, fmt.Errorf("%w: missing date column", core.ErrInvalidPriceData)
	}
	closeCol, ok := headerMap["close"]
	if !ok {
		return core.PriceBar{}, fmt.Errorf("%w: missing close column", core.ErrInvalidPriceData)
	}
	if dateCol >= len(line) || closeCol >= len(line) {
		return core.PriceBar{}, fmt.Errorf("%w: short record", core.ErrInvalidPriceData)
	}

	date, err := parseDate(line[dateCol])
	if err != nil {
		return core.PriceBar{}, err
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(line[closeCol]), 64)
	if err != nil {
		return core.PriceBar{}, fmt.Errorf("%w: bad close %q for %s", core.ErrInvalidPriceData, line[closeCol], symbol)
	}

	return core.PriceBar{Symbol: symbol, Date: date, Close: price}, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(ts, 0).UTC(), nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04:05"} {
		if date, err := time.Parse(layout, raw); err == nil {
			return date.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", core.ErrInvalidPriceData, raw)
}
