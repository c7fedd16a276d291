package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"dipper/internal/backtest"
	"dipper/internal/config"
	"dipper/internal/domain"
	"dipper/internal/indicator"
	"dipper/internal/provider"
	"dipper/internal/report"
	"dipper/internal/store"
	"dipper/internal/strategy"
	"dipper/internal/strategy/builtins"
	"dipper/internal/util"
)

func main() {
	cfgPath := flag.String("config", "config/dipper.yaml", "path to the YAML config file")
	offline := flag.Bool("offline", false, "use only locally cached bars, no market data requests")
	outPath := flag.String("out", "", "report output path (overrides config)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] SYMBOL\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	symbol := strings.ToUpper(strings.TrimSpace(flag.Arg(0)))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *outPath != "" {
		cfg.Report.OutputPath = *outPath
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, symbol, *offline); err != nil {
		log.Fatalf("backtest failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, symbol string, offline bool) error {
	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-cfg.Strategy.LookbackYears, 0, 0)

	var bars []domain.Bar
	var err error
	if offline {
		bars, err = pstore.ReadBars(ctx, symbol, start, end)
		if err != nil {
			return fmt.Errorf("reading cached bars: %w", err)
		}
		if len(bars) == 0 {
			return fmt.Errorf("no cached bars for %s, run without -offline first", symbol)
		}
	} else {
		ap := provider.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Alpaca.BaseURL)
		if last, calErr := ap.LatestFinishedTradingDay(); calErr == nil {
			end = last
		} else {
			slog.Warn("trading calendar unavailable, using wall clock", "error", calErr)
		}
		bars, err = ap.Fetch(ctx, symbol, start, end)
		if err != nil {
			return fmt.Errorf("fetching bars: %w", err)
		}
		if werr := pstore.WriteBars(ctx, bars); werr != nil {
			slog.Warn("failed to cache bars", "symbol", symbol, "error", werr)
		}
	}
	slog.Info("loaded bars", "symbol", symbol, "count", len(bars),
		"from", bars[0].Timestamp.Format("2006-01-02"),
		"to", bars[len(bars)-1].Timestamp.Format("2006-01-02"))

	registry := strategy.NewRegistry()
	registry.Register(builtins.NewMeanReversion(builtins.Params{
		RSIOversold:  cfg.Strategy.RSIOversold,
		ProfitTarget: cfg.Strategy.ProfitTarget,
		StopLoss:     cfg.Strategy.StopLoss,
		MaxHoldDays:  cfg.Strategy.MaxHoldDays,
	}))
	strat, ok := registry.Get(cfg.Strategy.Name)
	if !ok {
		return fmt.Errorf("unknown strategy %q, have %v", cfg.Strategy.Name, registry.List())
	}

	params := indicator.Params{
		MAPeriod:  cfg.Strategy.MAPeriod,
		RSIPeriod: cfg.Strategy.RSIPeriod,
	}
	sim, err := backtest.NewSimulator(strat, params, backtest.Config{
		InitialCapital: cfg.Backtest.InitialCapital,
		LotSize:        cfg.Backtest.LotSize,
		FeeRate:        cfg.Backtest.FeeRate,
		TaxRate:        cfg.Backtest.TaxRate,
		Slippage:       cfg.Backtest.Slippage,
	})
	if err != nil {
		return err
	}

	res, err := sim.Run(bars)
	if err != nil {
		return err
	}

	if err := writeReports(cfg, res, bars, params); err != nil {
		return err
	}

	if err := persistRun(ctx, cfg, strat.Name(), res); err != nil {
		slog.Warn("failed to persist run", "error", err)
	}

	return nil
}

func writeReports(cfg *config.Config, res *backtest.Result, bars []domain.Bar, params indicator.Params) error {
	if err := report.WriteText(os.Stdout, res); err != nil {
		return err
	}

	if cfg.Report.OutputPath != "" {
		f, err := os.Create(cfg.Report.OutputPath)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		if err := report.WriteText(f, res); err != nil {
			return err
		}
		slog.Info("wrote report", "path", cfg.Report.OutputPath)
	}

	if cfg.Report.Chart {
		frames, err := indicator.Compute(bars, params)
		if err != nil {
			return err
		}
		chartPath := chartPathFor(cfg.Report.OutputPath)
		f, err := os.Create(chartPath)
		if err != nil {
			return fmt.Errorf("creating chart file: %w", err)
		}
		defer f.Close()
		if err := report.WriteChart(f, res, bars, frames); err != nil {
			return err
		}
		slog.Info("wrote chart", "path", chartPath)
	}

	return nil
}

// chartPathFor derives the HTML chart path from the text report path.
func chartPathFor(reportPath string) string {
	if reportPath == "" {
		return "report.html"
	}
	ext := filepath.Ext(reportPath)
	return strings.TrimSuffix(reportPath, ext) + ".html"
}

func persistRun(ctx context.Context, cfg *config.Config, stratName string, res *backtest.Result) error {
	if cfg.Storage.SQLitePath == "" {
		return nil
	}
	rstore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer rstore.Close()

	run := store.RunRecord{
		ID:               uuid.NewString(),
		Symbol:           res.Symbol,
		Strategy:         stratName,
		Start:            res.Start,
		End:              res.End,
		InitialCapital:   res.Stats.InitialCapital,
		FinalEquity:      res.Stats.FinalEquity,
		CumulativeReturn: res.Stats.CumulativeReturn,
		WinRate:          res.Stats.WinRate,
		AvgReturn:        res.Stats.AvgReturn,
		MaxDrawdown:      res.Stats.MaxDrawdown,
		Trades:           res.Stats.Trades,
		CreatedAt:        time.Now().UTC(),
	}
	if err := rstore.SaveRun(ctx, run, res.Trades); err != nil {
		return err
	}
	slog.Info("saved run", "id", run.ID, "symbol", run.Symbol, "trades", run.Trades)
	return nil
}
