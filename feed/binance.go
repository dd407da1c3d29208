package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"

	"github.com/raykavin/optifolio/core"
)

const (
	klineBatchSize = 1000
	maxFetchRetry  = 5
)

// Binance implements core.PriceProvider with daily klines from the Binance
// spot API. Transient fetch errors are retried with exponential backoff.
type Binance struct {
	client *binance.Client
	log    core.Logger
}

// BinanceConfig holds the API credentials. Public kline data works with
// empty credentials.
type BinanceConfig struct {
	APIKey    string
	APISecret string
}

// NewBinance creates a new Binance price provider
func NewBinance(config BinanceConfig, log core.Logger) *Binance {
	return &Binance{
		client: binance.NewClient(config.APIKey, config.APISecret),
		log:    log,
	}
}

// Prices implements core.PriceProvider.
func (b *Binance) Prices(ctx context.Context, symbols []string, start, end time.Time) (*core.PriceSeries, error) {
	ordered := dedupeSymbols(symbols)
	if len(ordered) == 0 {
		return nil, core.ErrEmptyPortfolio
	}

	bars := make(map[string][]core.PriceBar, len(ordered))
	for _, symbol := range ordered {
		symbolBars, err := b.DailyBars(ctx, symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", symbol, err)
		}
		bars[symbol] = symbolBars
	}

	return buildSeries(ordered, bars, start, end)
}

// DailyBars fetches the daily close bars for one symbol, paginating through
// the kline endpoint in batches.
func (b *Binance) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error) {
	var bars []core.PriceBar

	for cursor := start; !cursor.After(end); {
		klines, err := b.fetchKlines(ctx, symbol, cursor, end)
		if err != nil {
			return nil, err
		}
		if len(klines) == 0 {
			break
		}

		for _, kline := range klines {
			closePrice, err := strconv.ParseFloat(kline.Close, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad close %q for %s", core.ErrInvalidPriceData, kline.Close, symbol)
			}
			bars = append(bars, core.PriceBar{
				Symbol: symbol,
				Date:   time.UnixMilli(kline.OpenTime).UTC().Truncate(24 * time.Hour),
				Close:  closePrice,
			})
		}

		cursor = time.UnixMilli(klines[len(klines)-1].CloseTime).Add(time.Millisecond)
	}

	return bars, nil
}

// fetchKlines requests one batch of daily klines with retry backoff
func (b *Binance) fetchKlines(ctx context.Context, symbol string, start, end time.Time) ([]*binance.Kline, error) {
	retry := &backoff.Backoff{
		Min: 100 * time.Millisecond,
		Max: 1 * time.Second,
	}

	var lastErr error
	for attempt := 0; attempt < maxFetchRetry; attempt++ {
		klines, err := b.client.NewKlinesService().
			Symbol(symbol).
			Interval(dailyTimeframe).
			StartTime(start.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(klineBatchSize).
			Do(ctx)
		if err == nil {
			return klines, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		wait := retry.Duration()
		if b.log != nil {
			b.log.WithError(err).Warnf("kline fetch for %s failed, retrying in %s", symbol, wait)
		}
		time.Sleep(wait)
	}

	return nil, lastErr
}
