package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"dipper/internal/backtest"
	"dipper/internal/domain"
	"dipper/internal/indicator"
)

func sampleResult() *backtest.Result {
	day := func(d int) time.Time {
		return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
	}
	return &backtest.Result{
		Symbol: "AAPL",
		Start:  day(1),
		End:    day(31),
		Trades: []domain.Trade{
			{
				Symbol:     "AAPL",
				EntryDate:  day(3),
				ExitDate:   day(10),
				EntryPrice: 90,
				ExitPrice:  94.5,
				Shares:     1000,
				PnL:        4500,
				PnLPct:     0.05,
				ExitReason: domain.ExitTakeProfit,
			},
			{
				Symbol:     "AAPL",
				EntryDate:  day(12),
				ExitDate:   day(20),
				EntryPrice: 100,
				ExitPrice:  96,
				Shares:     1000,
				PnL:        -4000,
				PnLPct:     -0.04,
				ExitReason: domain.ExitStopLoss,
			},
		},
		Stats: backtest.Stats{
			Trades:           2,
			Wins:             1,
			Losses:           1,
			WinRate:          0.5,
			AvgReturn:        0.005,
			CumulativeReturn: 0.0005,
			MaxDrawdown:      0.004,
			InitialCapital:   1_000_000,
			FinalEquity:      1_000_500,
		},
		Equity: []backtest.EquityPoint{
			{Date: day(1), Equity: 1_000_000},
			{Date: day(31), Equity: 1_000_500},
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Backtest AAPL",
		"2025-03-01 .. 2025-03-31",
		"take_profit",
		"stop_loss",
		"2 (1 wins, 1 losses)",
		"Win rate:          50.00%",
		"Cumulative return: +0.05%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextNoTrades(t *testing.T) {
	res := sampleResult()
	res.Trades = nil
	res.Stats = backtest.Stats{InitialCapital: 1_000_000, FinalEquity: 1_000_000}

	var buf bytes.Buffer
	if err := WriteText(&buf, res); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), "No trades.") {
		t.Errorf("empty run should say so:\n%s", buf.String())
	}
}

func TestWriteChart(t *testing.T) {
	res := sampleResult()
	bars := make([]domain.Bar, 25)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = domain.Bar{
			Symbol:    "AAPL",
			Timestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	frames, err := indicator.Compute(bars, indicator.DefaultParams)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	res.Equity = make([]backtest.EquityPoint, len(bars))
	for i, b := range bars {
		res.Equity[i] = backtest.EquityPoint{Date: b.Timestamp, Equity: 1_000_000 + float64(i)}
	}

	var buf bytes.Buffer
	if err := WriteChart(&buf, res, bars, frames); err != nil {
		t.Fatalf("WriteChart: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "echarts") {
		t.Error("chart output does not look like an echarts page")
	}
	if !strings.Contains(html, "AAPL daily") || !strings.Contains(html, "Equity") {
		t.Error("chart output missing expected titles")
	}
}

func TestWriteChartNoBars(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChart(&buf, sampleResult(), nil, nil); err == nil {
		t.Fatal("expected error for empty bar series")
	}
}
