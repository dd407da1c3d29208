// Package storage provides persistent price bar stores used as local
// caches by the feed providers.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/raykavin/optifolio/core"
)

const (
	// DefaultIndexName orders bars by date within the key space
	DefaultIndexName = "date_index"
)

// BuntStorage implements core.PriceStorage using BuntDB with JSON values.
type BuntStorage struct {
	db *buntdb.DB
}

// BuntConfig holds configuration options for BuntDB
type BuntConfig struct {
	// Additional indexes to create beyond the default date index
	AdditionalIndexes map[string]string
	// SyncPolicy determines how often data is synchronized to disk
	SyncPolicy buntdb.SyncPolicy
}

// DefaultBuntConfig returns the default configuration for BuntDB
func DefaultBuntConfig() BuntConfig {
	return BuntConfig{
		AdditionalIndexes: make(map[string]string),
		SyncPolicy:        buntdb.Never,
	}
}

// NewFromMemory creates an in-memory storage with default configuration
func NewFromMemory() (core.PriceStorage, error) {
	return NewBuntStorage(":memory:", DefaultBuntConfig())
}

// NewFromFile creates a file-based storage with default configuration
func NewFromFile(file string) (core.PriceStorage, error) {
	return NewBuntStorage(file, DefaultBuntConfig())
}

// NewBuntStorage creates a new BuntDB storage instance with the specified configuration
func NewBuntStorage(sourceFile string, config BuntConfig) (core.PriceStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{
		SyncPolicy: config.SyncPolicy,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	if err := db.CreateIndex(DefaultIndexName, "*", buntdb.IndexJSON("date")); err != nil {
		return nil, fmt.Errorf("failed to create default index: %w", err)
	}

	for name, pattern := range config.AdditionalIndexes {
		if err := db.CreateIndex(name, "*", buntdb.IndexJSON(pattern)); err != nil {
			return nil, fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}

	return &BuntStorage{db: db}, nil
}

// barKey builds the key for a bar. Symbol plus unix date keeps writes
// idempotent: saving the same bar twice overwrites in place.
func barKey(symbol string, date time.Time) string {
	return symbol + ":" + strconv.FormatInt(date.Unix(), 10)
}

// SaveBars stores price bars, overwriting existing entries for the same
// symbol and date.
func (b *BuntStorage) SaveBars(_ context.Context, bars []core.PriceBar) error {
	// Use a context-aware version if BuntDB adds context support in future
	return b.db.Update(func(tx *buntdb.Tx) error {
		for _, bar := range bars {
			content, err := json.Marshal(bar)
			if err != nil {
				return fmt.Errorf("failed to marshal bar: %w", err)
			}

			if _, _, err := tx.Set(barKey(bar.Symbol, bar.Date), string(content), nil); err != nil {
				return fmt.Errorf("failed to store bar: %w", err)
			}
		}
		return nil
	})
}

// Bars retrieves the bars for one symbol inside [start, end], sorted by date.
func (b *BuntStorage) Bars(_ context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error) {
	bars := make([]core.PriceBar, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(symbol+":*", func(key, value string) bool {
			var bar core.PriceBar
			if err := json.Unmarshal([]byte(value), &bar); err != nil {
				return true // skip malformed entries
			}
			if bar.Date.Before(start) || bar.Date.After(end) {
				return true
			}
			bars = append(bars, bar)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// Close closes the database connection
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
