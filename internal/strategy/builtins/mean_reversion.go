// Package builtins provides built-in strategy implementations that ship with
// dipper.
package builtins

import (
	"dipper/internal/domain"
	"dipper/internal/indicator"
	"dipper/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MeanReversion)(nil)

// MeanReversion buys oversold dips below the moving average and exits on a
// profit target, a stop loss, or a holding-period cap. It evaluates the exit
// rules in that order, which is also their precedence when several fire on
// the same bar.
type MeanReversion struct {
	rsiOversold  float64
	profitTarget float64
	stopLoss     float64
	maxHoldDays  int
}

// Params configures a MeanReversion strategy.
type Params struct {
	// RSIOversold is the RSI level below which a bar counts as oversold.
	RSIOversold float64
	// ProfitTarget is the close-to-close return that triggers a take-profit
	// exit, e.g. 0.05 for +5%.
	ProfitTarget float64
	// StopLoss is the (negative) return that triggers a stop-loss exit,
	// e.g. -0.03 for -3%.
	StopLoss float64
	// MaxHoldDays caps how many bars a position may be held.
	MaxHoldDays int
}

// DefaultParams are the shipped rule thresholds.
var DefaultParams = Params{
	RSIOversold:  30,
	ProfitTarget: 0.05,
	StopLoss:     -0.03,
	MaxHoldDays:  20,
}

// NewMeanReversion creates a MeanReversion strategy with the given thresholds.
func NewMeanReversion(p Params) *MeanReversion {
	return &MeanReversion{
		rsiOversold:  p.RSIOversold,
		profitTarget: p.ProfitTarget,
		stopLoss:     p.StopLoss,
		maxHoldDays:  p.MaxHoldDays,
	}
}

// Name returns "mean-reversion".
func (s *MeanReversion) Name() string {
	return "mean-reversion"
}

// Evaluate applies the entry rule when flat and the prioritized exit rules
// when holding.
func (s *MeanReversion) Evaluate(bar domain.Bar, frame indicator.Frame, pos *domain.Position) domain.Decision {
	if pos == nil {
		if frame.MAValid && frame.RSIValid &&
			bar.Close < frame.MA && frame.RSI < s.rsiOversold {
			return domain.Decision{Action: domain.ActionBuy}
		}
		return domain.Decision{Action: domain.ActionHold}
	}

	ret := (bar.Close - pos.EntryPrice) / pos.EntryPrice
	switch {
	case ret >= s.profitTarget:
		return domain.Decision{Action: domain.ActionSell, Reason: domain.ExitTakeProfit}
	case ret <= s.stopLoss:
		return domain.Decision{Action: domain.ActionSell, Reason: domain.ExitStopLoss}
	case pos.HoldingDays >= s.maxHoldDays:
		return domain.Decision{Action: domain.ActionSell, Reason: domain.ExitMaxHolding}
	}
	return domain.Decision{Action: domain.ActionHold}
}
