package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dipper/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

// SQLiteStore implements ResultStore backed by a SQLite database. Each run
// occupies one row in backtest_runs and its trade log lives in
// backtest_trades, keyed by run ID.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, ensures the
// schema exists, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			strategy TEXT NOT NULL,
			start_ts INTEGER NOT NULL,
			end_ts INTEGER NOT NULL,
			initial_capital REAL NOT NULL,
			final_equity REAL NOT NULL,
			cumulative_return REAL NOT NULL,
			win_rate REAL NOT NULL,
			avg_return REAL NOT NULL,
			max_drawdown REAL NOT NULL,
			trades INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES backtest_runs(id),
			symbol TEXT NOT NULL,
			entry_ts INTEGER NOT NULL,
			exit_ts INTEGER NOT NULL,
			entry_price REAL NOT NULL,
			exit_price REAL NOT NULL,
			shares INTEGER NOT NULL,
			pnl REAL NOT NULL,
			pnl_pct REAL NOT NULL,
			exit_reason TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol ON backtest_runs(symbol, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON backtest_trades(run_id, id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// SaveRun inserts the run summary and its trade log in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord, trades []domain.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO backtest_runs
		 (id, symbol, strategy, start_ts, end_ts, initial_capital, final_equity,
		  cumulative_return, win_rate, avg_return, max_drawdown, trades, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Symbol, run.Strategy,
		run.Start.UnixMilli(), run.End.UnixMilli(),
		run.InitialCapital, run.FinalEquity,
		run.CumulativeReturn, run.WinRate, run.AvgReturn, run.MaxDrawdown,
		run.Trades, createdAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	for _, t := range trades {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO backtest_trades
			 (run_id, symbol, entry_ts, exit_ts, entry_price, exit_price, shares, pnl, pnl_pct, exit_reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, t.Symbol,
			t.EntryDate.UnixMilli(), t.ExitDate.UnixMilli(),
			t.EntryPrice, t.ExitPrice, t.Shares, t.PnL, t.PnLPct, string(t.ExitReason),
		)
		if err != nil {
			return fmt.Errorf("inserting trade for run %s: %w", run.ID, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run summary by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, symbol, strategy, start_ts, end_ts, initial_capital, final_equity,
		        cumulative_return, win_rate, avg_return, max_drawdown, trades, created_at
		 FROM backtest_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. An empty symbol
// matches all runs; limit <= 0 defaults to 20.
func (s *SQLiteStore) ListRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, symbol, strategy, start_ts, end_ts, initial_capital, final_equity,
	                 cumulative_return, win_rate, avg_return, max_drawdown, trades, created_at
	          FROM backtest_runs`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListTrades returns the ordered trade log for a run.
func (s *SQLiteStore) ListTrades(ctx context.Context, runID string) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, entry_ts, exit_ts, entry_price, exit_price, shares, pnl, pnl_pct, exit_reason
		 FROM backtest_trades WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var entryTS, exitTS int64
		var reason string
		if err := rows.Scan(&t.Symbol, &entryTS, &exitTS, &t.EntryPrice, &t.ExitPrice,
			&t.Shares, &t.PnL, &t.PnLPct, &reason); err != nil {
			return nil, err
		}
		t.EntryDate = time.UnixMilli(entryTS).UTC()
		t.ExitDate = time.UnixMilli(exitTS).UTC()
		t.ExitReason = domain.ExitReason(reason)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*RunRecord, error) {
	var run RunRecord
	var startTS, endTS, createdTS int64
	if err := sc.Scan(&run.ID, &run.Symbol, &run.Strategy, &startTS, &endTS,
		&run.InitialCapital, &run.FinalEquity, &run.CumulativeReturn,
		&run.WinRate, &run.AvgReturn, &run.MaxDrawdown, &run.Trades, &createdTS); err != nil {
		return nil, err
	}
	run.Start = time.UnixMilli(startTS).UTC()
	run.End = time.UnixMilli(endTS).UTC()
	run.CreatedAt = time.UnixMilli(createdTS).UTC()
	return &run, nil
}
