package core

import "errors"

var (
	// ErrDimensionMismatch is returned when an allocation vector length does
	// not match the number of instruments in the price series.
	ErrDimensionMismatch = errors.New("allocation length does not match instrument count")

	// ErrInvalidPriceData is returned when a series cannot be normalized,
	// e.g. a zero or non-finite first price.
	ErrInvalidPriceData = errors.New("invalid price data")

	// ErrInsufficientData is returned when a series is too short to compute
	// at least one daily return.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateVolatility is returned when the daily return volatility is
	// zero, leaving the Sharpe ratio undefined.
	ErrDegenerateVolatility = errors.New("degenerate volatility")

	// ErrEmptyPortfolio is returned when no instruments are supplied.
	ErrEmptyPortfolio = errors.New("empty portfolio")

	// ErrNotConverged is returned when the underlying solver stops without
	// reaching a convergence status. The best iterate found is still
	// reported alongside this error.
	ErrNotConverged = errors.New("optimization did not converge")
)
