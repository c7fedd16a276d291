package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"dipper/internal/domain"
)

// Compile-time interface check.
var _ PriceProvider = (*AlpacaProvider)(nil)

// AlpacaProvider fetches daily bars for US equities via the Alpaca
// market-data API.
type AlpacaProvider struct {
	client    *marketdata.Client
	apiKey    string
	apiSecret string
	baseURL   string // live trading API, used for the trading calendar
	log       *slog.Logger
}

// NewAlpacaProvider creates an AlpacaProvider configured with the given
// credentials and endpoints. dataURL may be empty to use the SDK default.
func NewAlpacaProvider(apiKey, apiSecret, dataURL, baseURL string) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaProvider{
		client:    marketdata.NewClient(opts),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		log:       slog.Default().With("provider", "alpaca"),
	}
}

// Fetch returns daily bars for symbol within [start, end]. A single API call
// is made; an empty result is treated as an unknown symbol and returned as
// an error, and the series is validated before being handed to the caller.
func (p *AlpacaProvider) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol must not be empty")
	}

	alpacaBars, err := p.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      "sip",
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}
	if len(alpacaBars) == 0 {
		return nil, fmt.Errorf("no bars returned for %s: unknown symbol or empty range", symbol)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: ab.Timestamp,
			Open:      ab.Open,
			High:      ab.High,
			Low:       ab.Low,
			Close:     ab.Close,
			Volume:    int64(ab.Volume),
		})
	}

	if err := domain.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("validating %s series: %w", symbol, err)
	}

	p.log.Info("fetched daily bars",
		"symbol", symbol,
		"bars", len(bars),
		"start", bars[0].Timestamp.Format("2006-01-02"),
		"end", bars[len(bars)-1].Timestamp.Format("2006-01-02"),
	)
	return bars, nil
}

// LatestFinishedTradingDay returns the most recent trading day whose market
// session has ended (after 20:05 ET to account for extended hours data
// settling). It uses the Alpaca trading calendar API.
func (p *AlpacaProvider) LatestFinishedTradingDay() (time.Time, error) {
	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    p.apiKey,
		APISecret: p.apiSecret,
		BaseURL:   p.baseURL,
	})

	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Time{}, fmt.Errorf("loading ET timezone: %w", err)
	}

	now := time.Now().In(et)
	start := now.AddDate(0, 0, -7)

	calendar, err := client.GetCalendar(alpaca.GetCalendarRequest{
		Start: start,
		End:   now,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("GetCalendar: %w", err)
	}
	if len(calendar) == 0 {
		return time.Time{}, fmt.Errorf("no trading days returned from calendar")
	}

	today := now.Format("2006-01-02")
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 20, 5, 0, 0, et)

	for i := len(calendar) - 1; i >= 0; i-- {
		day := calendar[i]
		if day.Date == today {
			if now.After(cutoff) {
				t, _ := time.Parse("2006-01-02", day.Date)
				return t, nil
			}
			continue
		}
		dayDate, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			continue
		}
		if dayDate.Before(now) {
			return dayDate, nil
		}
	}

	return time.Time{}, fmt.Errorf("could not determine latest finished trading day")
}
