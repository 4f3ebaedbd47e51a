package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"forexscalper/internal/domain"
	"forexscalper/internal/ports"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.TradeRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/scalper.db" // Default path
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally, but the Go driver benefits
	// from a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		pair TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL DEFAULT NULL,
		stop_loss REAL NOT NULL,
		take_profit REAL NOT NULL,
		lot_size REAL NOT NULL,
		strategy TEXT NOT NULL,
		status TEXT NOT NULL,
		opened_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP DEFAULT NULL,
		pnl REAL DEFAULT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_pair_opened_at ON trades (pair, opened_at);
	CREATE INDEX IF NOT EXISTS idx_trades_pair_status ON trades (pair, status);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// CreateTrade saves a new trade record.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) error {
	const query = `
	INSERT INTO trades (id, pair, direction, entry_price, exit_price, stop_loss, take_profit,
	                    lot_size, strategy, status, opened_at, closed_at, pnl)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		trade.ID.String(), trade.Pair, trade.Direction, trade.EntryPrice, toNullFloat(trade.ExitPrice),
		trade.StopLoss, trade.TakeProfit, trade.LotSize, trade.Strategy, trade.Status,
		trade.OpenedAt, toNullTime(trade.ClosedAt), toNullFloat(trade.PnL))
	if err != nil {
		return fmt.Errorf("failed to insert trade for pair %s: %w", trade.Pair, err)
	}
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": trade.ID.String(), "pair": trade.Pair})
	return nil
}

// UpdateTrade persists changes to an existing trade.
func (r *Repository) UpdateTrade(ctx context.Context, trade *domain.Trade) error {
	const query = `
	UPDATE trades
	SET exit_price = ?, stop_loss = ?, take_profit = ?, status = ?, closed_at = ?, pnl = ?
	WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		toNullFloat(trade.ExitPrice), trade.StopLoss, trade.TakeProfit, trade.Status,
		toNullTime(trade.ClosedAt), toNullFloat(trade.PnL), trade.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update trade %s: %w", trade.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for trade %s: %w", trade.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade %s not found for update: %w", trade.ID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade updated", map[string]interface{}{"tradeID": trade.ID.String(), "status": trade.Status})
	return nil
}

// GetTradeByID retrieves a trade by its identifier.
func (r *Repository) GetTradeByID(ctx context.Context, id string) (*domain.Trade, error) {
	const query = `
	SELECT id, pair, direction, entry_price, exit_price, stop_loss, take_profit,
	       lot_size, strategy, status, opened_at, closed_at, pnl
	FROM trades
	WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trade %s: %w", id, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query trade %s: %w", id, err)
	}
	return trade, nil
}

// ListTradesByPair retrieves the most recent trades for a pair, up to a limit.
func (r *Repository) ListTradesByPair(ctx context.Context, pair string, limit int) ([]*domain.Trade, error) {
	const query = `
	SELECT id, pair, direction, entry_price, exit_price, stop_loss, take_profit,
	       lot_size, strategy, status, opened_at, closed_at, pnl
	FROM trades
	WHERE pair = ? ORDER BY opened_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, pair, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for pair %s: %w", pair, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during ListTradesByPair: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// CountTradesToday counts the trades opened for the pair during the
// current UTC calendar day.
func (r *Repository) CountTradesToday(ctx context.Context, pair string) (int, error) {
	const query = `SELECT COUNT(*) FROM trades WHERE pair = ? AND date(opened_at) = date('now')`
	var count int
	err := r.db.QueryRowContext(ctx, query, pair).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades today for pair %s: %w", pair, err)
	}
	return count, nil
}

// TotalRealizedPnL sums realized profit and loss across all closed trades.
func (r *Repository) TotalRealizedPnL(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(pnl), 0) FROM trades WHERE status = ?`
	var total float64
	err := r.db.QueryRowContext(ctx, query, domain.StatusClosed).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate total realized pnl: %w", err)
	}
	return total, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var (
		id        string
		direction string
		strat     string
		status    string
		exitPrice sql.NullFloat64
		closedAt  sql.NullTime
		pnl       sql.NullFloat64
	)
	err := s.Scan(
		&id, &t.Pair, &direction, &t.EntryPrice, &exitPrice, &t.StopLoss, &t.TakeProfit,
		&t.LotSize, &strat, &status, &t.OpenedAt, &closedAt, &pnl)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid trade id %q: %w", id, err)
	}
	t.ID = parsed
	t.Direction = domain.Direction(direction)
	t.Strategy = domain.Strategy(strat)
	t.Status = domain.TradeStatus(status)
	if exitPrice.Valid {
		t.ExitPrice = &exitPrice.Float64
	}
	if closedAt.Valid {
		ts := closedAt.Time
		t.ClosedAt = &ts
	}
	if pnl.Valid {
		t.PnL = &pnl.Float64
	}
	return t, nil
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func toNullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
