package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/optifolio/core"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestBuntStorageSaveAndLoad(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)

	bars := []core.PriceBar{
		{Symbol: "AAA", Date: day(1), Close: 10},
		{Symbol: "AAA", Date: day(2), Close: 11},
		{Symbol: "BBB", Date: day(1), Close: 20},
	}
	require.NoError(t, store.SaveBars(context.Background(), bars))

	loaded, err := store.Bars(context.Background(), "AAA", day(1), day(31))
	require.NoError(t, err)

	require.Len(t, loaded, 2)
	assert.Equal(t, 10.0, loaded[0].Close)
	assert.Equal(t, 11.0, loaded[1].Close)
	assert.True(t, loaded[0].Date.Before(loaded[1].Date))
}

func TestBuntStorageRangeFilter(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)

	bars := []core.PriceBar{
		{Symbol: "AAA", Date: day(1), Close: 10},
		{Symbol: "AAA", Date: day(5), Close: 11},
		{Symbol: "AAA", Date: day(9), Close: 12},
	}
	require.NoError(t, store.SaveBars(context.Background(), bars))

	loaded, err := store.Bars(context.Background(), "AAA", day(2), day(8))
	require.NoError(t, err)

	require.Len(t, loaded, 1)
	assert.Equal(t, 11.0, loaded[0].Close)
}

func TestBuntStorageOverwrite(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.SaveBars(ctx, []core.PriceBar{{Symbol: "AAA", Date: day(1), Close: 10}}))
	require.NoError(t, store.SaveBars(ctx, []core.PriceBar{{Symbol: "AAA", Date: day(1), Close: 15}}))

	loaded, err := store.Bars(ctx, "AAA", day(1), day(2))
	require.NoError(t, err)

	require.Len(t, loaded, 1)
	assert.Equal(t, 15.0, loaded[0].Close)
}

func TestBuntStorageUnknownSymbol(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)

	loaded, err := store.Bars(context.Background(), "ZZZ", day(1), day(31))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
