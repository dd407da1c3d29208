package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/optifolio/core"
)

// Cached is a read-through cache in front of another provider. Bars found
// in storage are served locally; misses hit the upstream source and are
// saved before the series is built.
type Cached struct {
	source  BarSource
	storage core.PriceStorage
	log     core.Logger
}

// NewCached wraps a bar source with persistent storage.
func NewCached(source BarSource, storage core.PriceStorage, log core.Logger) *Cached {
	return &Cached{source: source, storage: storage, log: log}
}

// Prices implements core.PriceProvider.
func (c *Cached) Prices(ctx context.Context, symbols []string, start, end time.Time) (*core.PriceSeries, error) {
	ordered := dedupeSymbols(symbols)
	if len(ordered) == 0 {
		return nil, core.ErrEmptyPortfolio
	}

	bars := make(map[string][]core.PriceBar, len(ordered))
	for _, symbol := range ordered {
		symbolBars, err := c.symbolBars(ctx, symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", symbol, err)
		}
		bars[symbol] = symbolBars
	}

	return buildSeries(ordered, bars, start, end)
}

// symbolBars serves one symbol from storage, falling back to the upstream
// source on a miss. A partial cache hit still refetches the full range so
// interior gaps cannot masquerade as market holidays.
func (c *Cached) symbolBars(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error) {
	cached, err := c.storage.Bars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if covers(cached, start, end) {
		c.log.WithField("symbol", symbol).Debugf("cache hit, %d bars", len(cached))
		return cached, nil
	}

	fresh, err := c.source.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if err := c.storage.SaveBars(ctx, fresh); err != nil {
		return nil, err
	}

	c.log.WithField("symbol", symbol).Debugf("cache refresh, %d bars", len(fresh))
	return fresh, nil
}

// covers reports whether the cached bars span the requested range. Edges
// tolerate two days of slack for weekends.
func covers(bars []core.PriceBar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}

	const slack = 48 * time.Hour
	first, last := bars[0].Date, bars[len(bars)-1].Date
	return first.Sub(start) <= slack && end.Sub(last) <= slack
}
