package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raykavin/optifolio/core"
)

// SQLStorage implements core.PriceStorage using a SQL database via GORM.
type SQLStorage struct {
	db *gorm.DB
}

// Config holds the configuration for SQL database connections
type Config struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a default configuration for SQL connections
func DefaultConfig() Config {
	return Config{
		MaxIdleConns:    5,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// NewFromSQLite creates a new SQLite storage instance
func NewFromSQLite(dbPath string, config Config, opts ...gorm.Option) (core.PriceStorage, error) {
	dialect := sqlite.Open(dbPath)
	return newFromSQL(dialect, config, opts...)
}

// newFromSQL creates a new SQL storage instance with the specified configuration
func newFromSQL(dialect gorm.Dialector, config Config, opts ...gorm.Option) (core.PriceStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err = db.AutoMigrate(&core.PriceBar{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// SaveBars upserts price bars, keyed on symbol and date.
func (s *SQLStorage) SaveBars(ctx context.Context, bars []core.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx := s.db.WithContext(ctx)
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"close"}),
	}).Create(&bars)
	if result.Error != nil {
		return fmt.Errorf("failed to save bars: %w", result.Error)
	}
	return nil
}

// Bars retrieves the stored bars for a symbol inside [start, end].
func (s *SQLStorage) Bars(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error) {
	tx := s.db.WithContext(ctx)

	var bars []core.PriceBar
	result := tx.
		Where("symbol = ? AND date >= ? AND date <= ?", symbol, start, end).
		Order("date").
		Find(&bars)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to fetch bars: %w", result.Error)
	}

	return bars, nil
}

// WithTransaction executes the given function within a database transaction
func (s *SQLStorage) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
