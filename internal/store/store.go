// Package store defines storage for the two artifacts dipper persists: a
// local cache of fetched daily bars, and the results of completed backtest
// runs.
package store

import (
	"context"
	"time"

	"dipper/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with any already stored.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end],
	// ascending by date.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with cached bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// RunRecord is the persisted summary of one backtest run.
type RunRecord struct {
	ID               string
	Symbol           string
	Strategy         string
	Start            time.Time
	End              time.Time
	InitialCapital   float64
	FinalEquity      float64
	CumulativeReturn float64
	WinRate          float64
	AvgReturn        float64
	MaxDrawdown      float64
	Trades           int
	CreatedAt        time.Time
}

// ResultStore persists completed backtest runs and their trade logs.
type ResultStore interface {
	// SaveRun inserts a run summary together with its ordered trade log.
	SaveRun(ctx context.Context, run RunRecord, trades []domain.Trade) error

	// GetRun retrieves a run summary by ID.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// ListRuns returns the most recent runs for a symbol, newest first, up
	// to limit. An empty symbol matches all runs.
	ListRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error)

	// ListTrades returns the ordered trade log for a run.
	ListTrades(ctx context.Context, runID string) ([]domain.Trade, error)
}
