package domain

import (
	"testing"
	"time"
)

func TestZeroValues(t *testing.T) {
	// Verify Bar can be instantiated with zero values.
	bar := Bar{}
	if bar.Symbol != "" {
		t.Error("expected empty Symbol for zero-value Bar")
	}
	if !bar.Timestamp.IsZero() {
		t.Error("expected zero Timestamp for zero-value Bar")
	}
	if bar.Open != 0 || bar.High != 0 || bar.Low != 0 || bar.Close != 0 {
		t.Error("expected zero OHLC values for zero-value Bar")
	}
	if bar.Volume != 0 {
		t.Error("expected zero Volume for zero-value Bar")
	}

	pos := Position{}
	if pos.Shares != 0 || pos.HoldingDays != 0 {
		t.Error("expected zero Shares/HoldingDays for zero-value Position")
	}

	trade := Trade{}
	if trade.ExitReason != "" {
		t.Error("expected empty ExitReason for zero-value Trade")
	}
}

func TestConstants(t *testing.T) {
	if ActionBuy != "buy" || ActionSell != "sell" || ActionHold != "hold" {
		t.Error("Action constants have unexpected values")
	}
	if ExitTakeProfit != "take_profit" {
		t.Errorf("ExitTakeProfit = %q, want %q", ExitTakeProfit, "take_profit")
	}
	if ExitStopLoss != "stop_loss" {
		t.Errorf("ExitStopLoss = %q, want %q", ExitStopLoss, "stop_loss")
	}
	if ExitMaxHolding != "max_holding_period" {
		t.Errorf("ExitMaxHolding = %q, want %q", ExitMaxHolding, "max_holding_period")
	}
	if ExitEndOfData != "end_of_data" {
		t.Errorf("ExitEndOfData = %q, want %q", ExitEndOfData, "end_of_data")
	}
	if MarketUS != "us" {
		t.Error("MarketUS has unexpected value")
	}
}

func TestTradeWin(t *testing.T) {
	now := time.Now()
	win := Trade{EntryDate: now, ExitDate: now.AddDate(0, 0, 3), PnLPct: 0.05}
	if !win.Win() {
		t.Error("trade with positive PnLPct should be a win")
	}
	loss := Trade{PnLPct: -0.03}
	if loss.Win() {
		t.Error("trade with negative PnLPct should not be a win")
	}
	flat := Trade{PnLPct: 0}
	if flat.Win() {
		t.Error("trade with zero PnLPct should not be a win")
	}
}
