// Package provider resolves a stock symbol to an ordered daily bar sequence.
package provider

import (
	"context"
	"time"

	"dipper/internal/domain"
)

// PriceProvider supplies the daily OHLCV series for one symbol over a date
// range, ascending by date. A fetch either succeeds with a validated,
// non-empty series or fails; there is no partial result and no retry.
type PriceProvider interface {
	// Fetch returns bars for symbol within [start, end].
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}
