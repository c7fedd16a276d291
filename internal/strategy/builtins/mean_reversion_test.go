package builtins

import (
	"testing"
	"time"

	"dipper/internal/domain"
	"dipper/internal/indicator"
)

func frame(ma, rsi float64) indicator.Frame {
	return indicator.Frame{MA: ma, MAValid: true, RSI: rsi, RSIValid: true}
}

func TestEvaluateBuy(t *testing.T) {
	s := NewMeanReversion(DefaultParams)

	tests := []struct {
		name  string
		close float64
		frame indicator.Frame
		want  domain.Action
	}{
		{"oversold below ma", 90, frame(99.5, 10), domain.ActionBuy},
		{"below ma but rsi too high", 90, frame(99.5, 45), domain.ActionHold},
		{"oversold but above ma", 101, frame(99.5, 10), domain.ActionHold},
		{"rsi at threshold is not a buy", 90, frame(99.5, 30), domain.ActionHold},
		{"close equal to ma is not a buy", 99.5, frame(99.5, 10), domain.ActionHold},
		{"warm-up frame never buys", 50, indicator.Frame{}, domain.ActionHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := domain.Bar{Symbol: "TEST", Close: tt.close}
			got := s.Evaluate(bar, tt.frame, nil)
			if got.Action != tt.want {
				t.Errorf("Evaluate = %q, want %q", got.Action, tt.want)
			}
		})
	}
}

func TestEvaluateExits(t *testing.T) {
	s := NewMeanReversion(DefaultParams)
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	pos := func(days int) *domain.Position {
		return &domain.Position{Symbol: "TEST", EntryDate: entry, EntryPrice: 100, Shares: 10, HoldingDays: days}
	}

	tests := []struct {
		name       string
		close      float64
		days       int
		wantAction domain.Action
		wantReason domain.ExitReason
	}{
		{"take profit at +5%", 105, 3, domain.ActionSell, domain.ExitTakeProfit},
		{"take profit above +5%", 107.2, 3, domain.ActionSell, domain.ExitTakeProfit},
		{"stop loss at -3%", 97, 3, domain.ActionSell, domain.ExitStopLoss},
		{"max holding at 20 days", 101, 20, domain.ActionSell, domain.ExitMaxHolding},
		{"hold inside all limits", 101, 3, domain.ActionHold, ""},
		{"just under profit target holds", 104.9, 3, domain.ActionHold, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := domain.Bar{Symbol: "TEST", Close: tt.close}
			got := s.Evaluate(bar, frame(100, 50), pos(tt.days))
			if got.Action != tt.wantAction {
				t.Fatalf("Evaluate action = %q, want %q", got.Action, tt.wantAction)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Evaluate reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestExitPriority(t *testing.T) {
	s := NewMeanReversion(DefaultParams)
	pos := &domain.Position{EntryPrice: 100, Shares: 10, HoldingDays: 25}

	// Both take-profit and max-holding fire on this bar; take-profit must win.
	got := s.Evaluate(domain.Bar{Close: 106}, frame(100, 50), pos)
	if got.Reason != domain.ExitTakeProfit {
		t.Errorf("exit reason = %q, want %q", got.Reason, domain.ExitTakeProfit)
	}

	// Both stop-loss and max-holding fire; stop-loss must win.
	got = s.Evaluate(domain.Bar{Close: 95}, frame(100, 50), pos)
	if got.Reason != domain.ExitStopLoss {
		t.Errorf("exit reason = %q, want %q", got.Reason, domain.ExitStopLoss)
	}
}

func TestNoBuyWhileHolding(t *testing.T) {
	s := NewMeanReversion(DefaultParams)
	pos := &domain.Position{EntryPrice: 100, Shares: 10, HoldingDays: 1}

	// A bar that satisfies the entry rule must not produce a buy while a
	// position is open.
	got := s.Evaluate(domain.Bar{Close: 99}, frame(100, 10), pos)
	if got.Action == domain.ActionBuy {
		t.Error("Evaluate produced a buy while holding")
	}
}
