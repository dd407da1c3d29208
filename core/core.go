package core

import (
	"context"
	"time"
)

// PriceProvider supplies dense, date-aligned historical price series.
// Implementations are responsible for gap handling: the returned series must
// share a single strictly increasing date index across all symbols.
type PriceProvider interface {
	Prices(ctx context.Context, symbols []string, start, end time.Time) (*PriceSeries, error)
}

// Optimizer searches the space of valid allocation vectors for the one
// maximizing the configured objective.
type Optimizer interface {
	Optimize(ctx context.Context, prices *PriceSeries) (*Result, error)
}

// Notifier receives the outcome of an optimization run.
type Notifier interface {
	OnResult(result *Result)
	OnError(err error)
}

// NotifierWithStart is a notifier that needs its own event loop.
type NotifierWithStart interface {
	Notifier
	Start()
}
