package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/optifolio/core"
	"github.com/raykavin/optifolio/storage"
)

// fakeSource serves canned bars and counts upstream fetches.
type fakeSource struct {
	bars    map[string][]core.PriceBar
	fetches int
}

func (f *fakeSource) DailyBars(_ context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error) {
	f.fetches++
	var out []core.PriceBar
	for _, bar := range f.bars[symbol] {
		if !bar.Date.Before(start) && !bar.Date.After(end) {
			out = append(out, bar)
		}
	}
	return out, nil
}

type nopLogger struct{ core.Logger }

func (nopLogger) WithField(string, any) core.Logger { return nopLogger{} }
func (nopLogger) WithError(error) core.Logger       { return nopLogger{} }
func (nopLogger) Debugf(string, ...any)             {}
func (nopLogger) Warn(...any)                       {}

func TestCachedServesFromStorageOnSecondFetch(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

	source := &fakeSource{bars: map[string][]core.PriceBar{
		"AAA": {
			{Symbol: "AAA", Date: day(1), Close: 10},
			{Symbol: "AAA", Date: day(2), Close: 11},
			{Symbol: "AAA", Date: day(3), Close: 12},
		},
	}}

	store, err := storage.NewFromMemory()
	require.NoError(t, err)

	cached := NewCached(source, store, nopLogger{})

	ctx := context.Background()
	first, err := cached.Prices(ctx, []string{"AAA"}, day(1), day(3))
	require.NoError(t, err)
	assert.Equal(t, 1, source.fetches)

	second, err := cached.Prices(ctx, []string{"AAA"}, day(1), day(3))
	require.NoError(t, err)
	assert.Equal(t, 1, source.fetches, "second fetch should hit the cache")

	assert.Equal(t, first.Columns, second.Columns)
}

func TestCachedRefetchesWiderRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

	bars := make([]core.PriceBar, 0, 20)
	for d := 1; d <= 20; d++ {
		bars = append(bars, core.PriceBar{Symbol: "AAA", Date: day(d), Close: float64(d)})
	}
	source := &fakeSource{bars: map[string][]core.PriceBar{"AAA": bars}}

	store, err := storage.NewFromMemory()
	require.NoError(t, err)

	cached := NewCached(source, store, nopLogger{})

	ctx := context.Background()
	_, err = cached.Prices(ctx, []string{"AAA"}, day(1), day(5))
	require.NoError(t, err)
	require.Equal(t, 1, source.fetches)

	// The cached window does not cover the wider request.
	wider, err := cached.Prices(ctx, []string{"AAA"}, day(1), day(20))
	require.NoError(t, err)
	assert.Equal(t, 2, source.fetches)
	assert.Equal(t, 20, wider.Len())
}
