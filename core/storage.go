package core

import (
	"context"
	"time"
)

// PriceBar is a single daily observation for one instrument.
type PriceBar struct {
	ID     int64     `gorm:"primaryKey,autoIncrement" json:"id"`
	Symbol string    `gorm:"index:idx_symbol_date,unique" json:"symbol"`
	Date   time.Time `gorm:"index:idx_symbol_date,unique" json:"date"`
	Close  float64   `json:"close"`
}

// PriceStorage defines the interface for persisting and retrieving daily
// price bars, typically as a local cache in front of a remote provider.
type PriceStorage interface {
	// SaveBars stores a batch of price bars, replacing existing entries for
	// the same symbol and date.
	SaveBars(ctx context.Context, bars []PriceBar) error

	// Bars retrieves the stored bars for a symbol within [start, end],
	// ordered by date.
	Bars(ctx context.Context, symbol string, start, end time.Time) ([]PriceBar, error)
}
