package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for a dipper backtest run.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Strategy StrategyConfig `yaml:"strategy"`
	Backtest BacktestConfig `yaml:"backtest"`
	Report   ReportConfig   `yaml:"report"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StrategyConfig holds the mean-reversion entry/exit parameters.
type StrategyConfig struct {
	Name          string  `yaml:"name"`
	MAPeriod      int     `yaml:"ma_period"`
	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	ProfitTarget  float64 `yaml:"profit_target"`
	StopLoss      float64 `yaml:"stop_loss"`
	MaxHoldDays   int     `yaml:"max_hold_days"`
	LookbackYears int     `yaml:"lookback_years"`
}

// BacktestConfig defines capital and execution-cost parameters for the
// simulator.
type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	LotSize        int64   `yaml:"lot_size"`
	FeeRate        float64 `yaml:"fee_rate"`
	TaxRate        float64 `yaml:"tax_rate"`
	Slippage       float64 `yaml:"slippage"`
}

// ReportConfig controls where and how the backtest report is written.
type ReportConfig struct {
	OutputPath string `yaml:"output_path"`
	Chart      bool   `yaml:"chart"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns a Config populated with the shipped strategy parameters.
// A YAML file and environment variables override these values.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "data/dipper.db",
		},
		Alpaca: Alpaca{
			BaseURL: "https://paper-api.alpaca.markets",
			DataURL: "https://data.alpaca.markets",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Strategy: StrategyConfig{
			Name:          "mean-reversion",
			MAPeriod:      20,
			RSIPeriod:     14,
			RSIOversold:   30,
			ProfitTarget:  0.05,
			StopLoss:      -0.03,
			MaxHoldDays:   20,
			LookbackYears: 2,
		},
		Backtest: BacktestConfig{
			InitialCapital: 1_000_000,
			LotSize:        1,
			FeeRate:        0.001425,
			TaxRate:        0.003,
			Slippage:       0.001,
		},
		Report: ReportConfig{
			OutputPath: "report.txt",
			Chart:      true,
		},
	}
}

// Load reads the YAML configuration file at the given path, parses it over
// the defaults, and then applies environment variable overrides. A missing
// file is not an error: defaults plus environment overrides are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Strategy.MAPeriod <= 0 {
		return fmt.Errorf("strategy.ma_period must be positive, got %d", c.Strategy.MAPeriod)
	}
	if c.Strategy.RSIPeriod <= 0 {
		return fmt.Errorf("strategy.rsi_period must be positive, got %d", c.Strategy.RSIPeriod)
	}
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive, got %g", c.Backtest.InitialCapital)
	}
	if c.Backtest.LotSize <= 0 {
		return fmt.Errorf("backtest.lot_size must be positive, got %d", c.Backtest.LotSize)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("DIPPER_INITIAL_CAPITAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Backtest.InitialCapital = f
		}
	}

	// Canonical Alpaca SDK env vars take precedence over the ALPACA_* names.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
