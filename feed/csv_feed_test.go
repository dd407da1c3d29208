package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/optifolio/core"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func window() (time.Time, time.Time) {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
}

func TestCSVFeedWithHeader(t *testing.T) {
	path := writeCSV(t, "aaa.csv", "date,close\n2025-01-01,10\n2025-01-02,11\n2025-01-03,12\n")

	feed, err := NewCSVFeed(SymbolFile{Symbol: "AAA", File: path})
	require.NoError(t, err)

	start, end := window()
	prices, err := feed.Prices(context.Background(), []string{"AAA"}, start, end)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA"}, prices.Symbols)
	assert.Equal(t, 3, prices.Len())
	assert.Equal(t, []float64{10, 11, 12}, prices.Columns[0])
}

func TestCSVFeedHeaderless(t *testing.T) {
	path := writeCSV(t, "aaa.csv", "2025-01-01,10\n2025-01-02,11\n")

	feed, err := NewCSVFeed(SymbolFile{Symbol: "AAA", File: path})
	require.NoError(t, err)

	start, end := window()
	prices, err := feed.Prices(context.Background(), []string{"AAA"}, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, prices.Len())
}

func TestCSVFeedHeaderAliases(t *testing.T) {
	path := writeCSV(t, "aaa.csv", "time,adj_close\n2025-01-01,10\n2025-01-02,11\n")

	feed, err := NewCSVFeed(SymbolFile{Symbol: "AAA", File: path})
	require.NoError(t, err)

	start, end := window()
	prices, err := feed.Prices(context.Background(), []string{"AAA"}, start, end)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11}, prices.Columns[0])
}

func TestCSVFeedUnixTimestamps(t *testing.T) {
	// 2025-01-01 and 2025-01-02 UTC
	path := writeCSV(t, "aaa.csv", "1735689600,10\n1735776000,11\n")

	feed, err := NewCSVFeed(SymbolFile{Symbol: "AAA", File: path})
	require.NoError(t, err)

	start, end := window()
	prices, err := feed.Prices(context.Background(), []string{"AAA"}, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, prices.Len())
	assert.True(t, prices.Dates[0].Equal(start))
}

func TestCSVFeedAlignsAndFills(t *testing.T) {
	// BBB is missing Jan 2: its close carries forward. AAA is missing
	// Jan 1: its first close is backfilled.
	aaa := writeCSV(t, "aaa.csv", "date,close\n2025-01-02,11\n2025-01-03,12\n")
	bbb := writeCSV(t, "bbb.csv", "date,close\n2025-01-01,20\n2025-01-03,22\n")

	feed, err := NewCSVFeed(
		SymbolFile{Symbol: "AAA", File: aaa},
		SymbolFile{Symbol: "BBB", File: bbb},
	)
	require.NoError(t, err)

	start, end := window()
	prices, err := feed.Prices(context.Background(), []string{"AAA", "BBB"}, start, end)
	require.NoError(t, err)

	require.Equal(t, 3, prices.Len())
	assert.Equal(t, []float64{11, 11, 12}, prices.Columns[0])
	assert.Equal(t, []float64{20, 20, 22}, prices.Columns[1])
}

func TestCSVFeedResamplesIntraday(t *testing.T) {
	content := "date,close\n" +
		"2025-01-01 09:00:00,10\n" +
		"2025-01-01 17:00:00,11\n" +
		"2025-01-02 09:00:00,12\n"
	path := writeCSV(t, "aaa.csv", content)

	feed, err := NewCSVFeed(SymbolFile{Symbol: "AAA", File: path, Timeframe: "1h"})
	require.NoError(t, err)

	start, end := window()
	prices, err := feed.Prices(context.Background(), []string{"AAA"}, start, end)
	require.NoError(t, err)

	// Last close of each day wins.
	require.Equal(t, 2, prices.Len())
	assert.Equal(t, []float64{11, 12}, prices.Columns[0])
}

func TestCSVFeedWindowFilter(t *testing.T) {
	path := writeCSV(t, "aaa.csv", "date,close\n2024-12-31,9\n2025-01-02,11\n2025-02-01,13\n")

	feed, err := NewCSVFeed(SymbolFile{Symbol: "AAA", File: path})
	require.NoError(t, err)

	start, end := window()
	prices, err := feed.Prices(context.Background(), []string{"AAA"}, start, end)
	require.NoError(t, err)

	require.Equal(t, 1, prices.Len())
	assert.Equal(t, []float64{11}, prices.Columns[0])
}

func TestCSVFeedSymbolNotFound(t *testing.T) {
	path := writeCSV(t, "aaa.csv", "date,close\n2025-01-01,10\n")

	feed, err := NewCSVFeed(SymbolFile{Symbol: "AAA", File: path})
	require.NoError(t, err)

	start, end := window()
	_, err = feed.Prices(context.Background(), []string{"AAA", "ZZZ"}, start, end)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestCSVFeedEmptyRange(t *testing.T) {
	path := writeCSV(t, "aaa.csv", "date,close\n2020-01-01,10\n")

	feed, err := NewCSVFeed(SymbolFile{Symbol: "AAA", File: path})
	require.NoError(t, err)

	start, end := window()
	_, err = feed.Prices(context.Background(), []string{"AAA"}, start, end)
	assert.ErrorIs(t, err, ErrEmptyRange)
}

func TestCSVFeedEmptySymbols(t *testing.T) {
	path := writeCSV(t, "aaa.csv", "date,close\n2025-01-01,10\n")

	feed, err := NewCSVFeed(SymbolFile{Symbol: "AAA", File: path})
	require.NoError(t, err)

	start, end := window()
	_, err = feed.Prices(context.Background(), []string{" "}, start, end)
	assert.ErrorIs(t, err, core.ErrEmptyPortfolio)
}

func TestCSVFeedBadClose(t *testing.T) {
	path := writeCSV(t, "aaa.csv", "date,close\n2025-01-01,abc\n")

	_, err := NewCSVFeed(SymbolFile{Symbol: "AAA", File: path})
	assert.ErrorIs(t, err, core.ErrInvalidPriceData)
}

func TestDedupeSymbols(t *testing.T) {
	out := dedupeSymbols([]string{"BBB", "AAA", "BBB", "", " AAA "})
	assert.Equal(t, []string{"BBB", "AAA"}, out)
}
