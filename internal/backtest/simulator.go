// Package backtest simulates the mean-reversion strategy over a historical
// daily bar sequence. The walk is a single pass with no lookahead: at most
// one position is open at any time, entries and exits fill at the bar close
// (adjusted for slippage), and every closed position yields exactly one
// trade in the log.
package backtest

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"dipper/internal/domain"
	"dipper/internal/indicator"
	"dipper/internal/strategy"
)

// Config holds capital and execution-cost parameters for a simulation run.
// Zero cost rates yield the idealized close-to-close arithmetic of the
// strategy rules.
type Config struct {
	InitialCapital float64
	// LotSize is the minimum tradable unit; share counts are always whole
	// multiples of it.
	LotSize  int64
	FeeRate  float64 // charged on both buy and sell notional
	TaxRate  float64 // charged on sell notional only
	Slippage float64 // price impact rate applied against the fill
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// Stats summarizes a completed run.
type Stats struct {
	Trades           int
	Wins             int
	Losses           int
	WinRate          float64
	AvgReturn        float64
	CumulativeReturn float64
	MaxDrawdown      float64
	InitialCapital   float64
	FinalEquity      float64
}

// Result is the full outcome of one simulation: the ordered trade log, the
// summary statistics, and the equity curve sampled at every bar.
type Result struct {
	Symbol string
	Start  time.Time
	End    time.Time
	Trades []domain.Trade
	Stats  Stats
	Equity []EquityPoint
}

// Simulator walks a bar sequence once, applying a strategy's decisions with
// whole-lot position sizing and cash accounting.
type Simulator struct {
	strat  strategy.Strategy
	params indicator.Params
	cfg    Config
	log    *slog.Logger
}

// NewSimulator creates a Simulator for the given strategy, indicator windows,
// and run configuration.
func NewSimulator(strat strategy.Strategy, params indicator.Params, cfg Config) (*Simulator, error) {
	if strat == nil {
		return nil, fmt.Errorf("strategy must not be nil")
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %g", cfg.InitialCapital)
	}
	if cfg.LotSize <= 0 {
		return nil, fmt.Errorf("lot size must be positive, got %d", cfg.LotSize)
	}
	return &Simulator{
		strat:  strat,
		params: params,
		cfg:    cfg,
		log:    slog.Default().With("component", "backtest"),
	}, nil
}

// openPosition pairs the domain Position the strategy sees with the decimal
// bookkeeping the accounting needs.
type openPosition struct {
	pos       domain.Position
	fillPrice decimal.Decimal // entry fill including slippage
	costBasis decimal.Decimal // fill notional plus buy fee
}

// Run executes the simulation over bars. The input must be a validated,
// ascending-by-date series for a single symbol; Run re-checks the ordering
// and price invariants and refuses to walk malformed data. A series too
// short for the indicator windows produces an empty trade log and zero
// statistics, which is a valid degenerate outcome rather than an error.
func (s *Simulator) Run(bars []domain.Bar) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars to simulate")
	}
	if err := domain.ValidateBars(bars); err != nil {
		return nil, err
	}

	frames, err := indicator.Compute(bars, s.params)
	if err != nil {
		return nil, err
	}

	cash := decimal.NewFromFloat(s.cfg.InitialCapital)
	feeRate := decimal.NewFromFloat(s.cfg.FeeRate)
	taxRate := decimal.NewFromFloat(s.cfg.TaxRate)
	slip := decimal.NewFromFloat(s.cfg.Slippage)
	lot := decimal.NewFromInt(s.cfg.LotSize)
	one := decimal.NewFromInt(1)

	var open *openPosition
	var trades []domain.Trade
	equity := make([]EquityPoint, 0, len(bars))
	peak := s.cfg.InitialCapital
	var maxDD float64

	for i, bar := range bars {
		if open != nil {
			// Holding-day counter advances before the exit rules see the bar,
			// so a cap of N days triggers on the Nth bar after entry.
			open.pos.HoldingDays++
		}

		var posView *domain.Position
		if open != nil {
			posView = &open.pos
		}
		decision := s.strat.Evaluate(bar, frames[i], posView)

		switch decision.Action {
		case domain.ActionBuy:
			if open != nil {
				// A buy while holding is ignored; the strategy contract
				// already forbids it.
				break
			}
			open = s.enter(&cash, bar, slip, feeRate, lot, one)

		case domain.ActionSell:
			if open == nil {
				break
			}
			trade := s.exit(&cash, open, bar, decision.Reason, slip, feeRate, taxRate, one)
			trades = append(trades, trade)
			open = nil
		}

		eq := s.markEquity(cash, open, bar)
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			if dd := (peak - eq) / peak; dd > maxDD {
				maxDD = dd
			}
		}
		equity = append(equity, EquityPoint{Date: bar.Timestamp, Equity: eq})
	}

	// Forced liquidation: a series that ends while holding closes at the
	// final close, explicitly marked so summary stats are not biased.
	if open != nil {
		last := bars[len(bars)-1]
		trade := s.exit(&cash, open, last, domain.ExitEndOfData, slip, feeRate, taxRate, one)
		trades = append(trades, trade)
		open = nil
		final, _ := cash.Float64()
		equity[len(equity)-1].Equity = final
	}

	finalEquity, _ := cash.Float64()
	res := &Result{
		Symbol: bars[0].Symbol,
		Start:  bars[0].Timestamp,
		End:    bars[len(bars)-1].Timestamp,
		Trades: trades,
		Equity: equity,
		Stats:  summarize(trades, s.cfg.InitialCapital, finalEquity, maxDD),
	}

	s.log.Info("simulation complete",
		"symbol", res.Symbol,
		"bars", len(bars),
		"trades", len(trades),
		"finalEquity", finalEquity,
	)
	return res, nil
}

// enter opens a position at the bar close, sizing it to the largest whole
// lot multiple affordable from cash including the buy-side fee. Returns nil
// when cash cannot cover a single lot.
func (s *Simulator) enter(cash *decimal.Decimal, bar domain.Bar, slip, feeRate, lot, one decimal.Decimal) *openPosition {
	rawClose := decimal.NewFromFloat(bar.Close)
	fill := rawClose.Mul(one.Add(slip))

	perLot := fill.Mul(one.Add(feeRate)).Mul(lot)
	lots := cash.Div(perLot).Floor()
	shares := lots.Mul(lot)
	if !shares.IsPositive() {
		s.log.Debug("buy signal skipped, insufficient cash",
			"symbol", bar.Symbol, "date", bar.Timestamp.Format("2006-01-02"), "close", bar.Close)
		return nil
	}

	notional := shares.Mul(fill)
	fee := notional.Mul(feeRate)
	*cash = cash.Sub(notional).Sub(fee)

	fillF, _ := fill.Float64()
	s.log.Debug("entered position",
		"symbol", bar.Symbol,
		"date", bar.Timestamp.Format("2006-01-02"),
		"price", fillF,
		"shares", shares.IntPart(),
	)
	return &openPosition{
		pos: domain.Position{
			Symbol:      bar.Symbol,
			EntryDate:   bar.Timestamp,
			EntryPrice:  bar.Close,
			Shares:      shares.IntPart(),
			HoldingDays: 0,
		},
		fillPrice: fill,
		costBasis: notional.Add(fee),
	}
}

// exit closes the open position at the bar close and realizes the trade.
// Trade entry/exit prices are fill prices including slippage; PnLPct is the
// raw close-to-close return the exit rules evaluated.
func (s *Simulator) exit(cash *decimal.Decimal, open *openPosition, bar domain.Bar, reason domain.ExitReason, slip, feeRate, taxRate, one decimal.Decimal) domain.Trade {
	fill := decimal.NewFromFloat(bar.Close).Mul(one.Sub(slip))
	shares := decimal.NewFromInt(open.pos.Shares)

	revenue := shares.Mul(fill)
	fee := revenue.Mul(feeRate)
	tax := revenue.Mul(taxRate)
	*cash = cash.Add(revenue).Sub(fee).Sub(tax)

	pnl := revenue.Sub(fee).Sub(tax).Sub(open.costBasis)
	pnlF, _ := pnl.Float64()
	entryFillF, _ := open.fillPrice.Float64()
	exitFillF, _ := fill.Float64()

	trade := domain.Trade{
		Symbol:     open.pos.Symbol,
		EntryDate:  open.pos.EntryDate,
		ExitDate:   bar.Timestamp,
		EntryPrice: entryFillF,
		ExitPrice:  exitFillF,
		Shares:     open.pos.Shares,
		PnL:        pnlF,
		PnLPct:     (bar.Close - open.pos.EntryPrice) / open.pos.EntryPrice,
		ExitReason: reason,
	}

	s.log.Debug("exited position",
		"symbol", trade.Symbol,
		"date", bar.Timestamp.Format("2006-01-02"),
		"reason", reason,
		"pnlPct", trade.PnLPct,
	)
	return trade
}

// markEquity values the portfolio at the bar close.
func (s *Simulator) markEquity(cash decimal.Decimal, open *openPosition, bar domain.Bar) float64 {
	eq := cash
	if open != nil {
		eq = eq.Add(decimal.NewFromInt(open.pos.Shares).Mul(decimal.NewFromFloat(bar.Close)))
	}
	f, _ := eq.Float64()
	return f
}

// summarize derives the report statistics from the trade log. An empty log
// yields zero-valued statistics with the cumulative return reflecting the
// untouched capital.
func summarize(trades []domain.Trade, initial, finalEquity, maxDD float64) Stats {
	st := Stats{
		Trades:         len(trades),
		MaxDrawdown:    maxDD,
		InitialCapital: initial,
		FinalEquity:    finalEquity,
	}
	if initial > 0 {
		st.CumulativeReturn = (finalEquity - initial) / initial
	}
	if len(trades) == 0 {
		return st
	}

	var retSum float64
	for _, t := range trades {
		retSum += t.PnLPct
		if t.Win() {
			st.Wins++
		} else {
			st.Losses++
		}
	}
	st.WinRate = float64(st.Wins) / float64(len(trades))
	st.AvgReturn = retSum / float64(len(trades))
	return st
}
