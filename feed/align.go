package feed

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/StudioSol/set"
	"github.com/samber/lo"

	"github.com/raykavin/optifolio/core"
)

// buildSeries assembles a dense PriceSeries from per-symbol bars. The date
// index is the union of the symbols' trading dates inside [start, end];
// missing observations are forward-filled and leading gaps back-filled.
func buildSeries(symbols []string, bars map[string][]core.PriceBar, start, end time.Time) (*core.PriceSeries, error) {
	perSymbol := make(map[string]map[time.Time]float64, len(symbols))
	index := set.NewLinkedHashSetINT64()

	for _, symbol := range symbols {
		closes := make(map[time.Time]float64)
		for _, bar := range bars[symbol] {
			if bar.Date.Before(start) || bar.Date.After(end) {
				continue
			}
			closes[bar.Date] = bar.Close
			index.Add(bar.Date.Unix())
		}
		perSymbol[symbol] = closes
	}

	stamps := make([]int64, 0, index.Length())
	for ts := range index.Iter() {
		stamps = append(stamps, ts)
	}
	dates := lo.Map(stamps, func(ts int64, _ int) time.Time {
		return time.Unix(ts, 0).UTC()
	})
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if len(dates) == 0 {
		return nil, ErrEmptyRange
	}

	columns := make([][]float64, len(symbols))
	for i, symbol := range symbols {
		columns[i] = fillColumn(dates, perSymbol[symbol])
	}

	return core.NewPriceSeries(dates, symbols, columns)
}

// dedupeSymbols removes duplicates while preserving the caller's order,
// which defines the allocation vector axis.
func dedupeSymbols(symbols []string) []string {
	ordered := set.NewLinkedHashSetString()
	for _, symbol := range symbols {
		if symbol = strings.TrimSpace(symbol); symbol != "" {
			ordered.Add(symbol)
		}
	}

	out := make([]string, 0, ordered.Length())
	for symbol := range ordered.Iter() {
		out = append(out, symbol)
	}
	return out
}

// fillColumn projects the per-date closes onto the shared index. Gaps carry
// the previous close forward; gaps before the first observation take the
// first close, so the column is dense end to end.
func fillColumn(dates []time.Time, closes map[time.Time]float64) []float64 {
	column := make([]float64, len(dates))

	last := math.NaN()
	for i, date := range dates {
		if price, ok := closes[date]; ok {
			last = price
		}
		column[i] = last
	}

	for i := len(column) - 1; i >= 0; i-- {
		if !math.IsNaN(column[i]) {
			last = column[i]
		} else {
			column[i] = last
		}
	}

	return column
}
