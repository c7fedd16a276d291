// Package domain defines the core types shared across the dipper pipeline:
// bars, positions, closed trades, and the decisions a strategy can emit.
package domain

import "time"

// Market identifies the market a symbol trades in.
type Market string

const (
	MarketUS Market = "us"
)

// Bar is one trading day's OHLCV record for a symbol. Bars are immutable once
// fetched and are always handled as an ascending-by-date sequence.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Action is the per-bar decision produced by a strategy.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	// ExitTakeProfit fires when the profit target is reached.
	ExitTakeProfit ExitReason = "take_profit"
	// ExitStopLoss fires when the loss limit is breached.
	ExitStopLoss ExitReason = "stop_loss"
	// ExitMaxHolding fires when the holding period cap is reached.
	ExitMaxHolding ExitReason = "max_holding_period"
	// ExitEndOfData marks a forced liquidation because the series ended while
	// a position was still open. It is distinguished from the rule-based
	// exits so summary statistics are not silently biased.
	ExitEndOfData ExitReason = "end_of_data"
)

// Decision is a strategy's verdict for a single bar. Reason is only set when
// Action is ActionSell.
type Decision struct {
	Action Action
	Reason ExitReason
}

// Position is the single open stake the simulator may hold. Shares is always
// a positive whole multiple of the configured lot unit.
type Position struct {
	Symbol      string
	EntryDate   time.Time
	EntryPrice  float64
	Shares      int64
	HoldingDays int
}

// Trade is a closed Position with realized entry and exit. PnL is the net
// monetary result after fees; PnLPct is the raw close-to-close return used by
// the exit rules.
type Trade struct {
	Symbol     string
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	Shares     int64
	PnL        float64
	PnLPct     float64
	ExitReason ExitReason
}

// Win reports whether the trade closed with a positive percentage return.
func (t Trade) Win() bool {
	return t.PnLPct > 0
}
