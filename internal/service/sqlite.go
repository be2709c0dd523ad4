package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"iccrelay-go/internal/model"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id           TEXT PRIMARY KEY,
	symbol       TEXT NOT NULL,
	direction    TEXT NOT NULL,
	market_class TEXT NOT NULL,
	timeframe    TEXT NOT NULL,
	entry        REAL NOT NULL,
	stop_loss    REAL NOT NULL,
	tp1          REAL NOT NULL,
	tp2          REAL NOT NULL,
	tp3          REAL NOT NULL,
	status       TEXT NOT NULL,
	final_result TEXT NOT NULL,
	profit_r     REAL NOT NULL,
	opened_at    TEXT NOT NULL,
	closed_at    TEXT,
	payload      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);

CREATE TABLE IF NOT EXISTS summaries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	period        TEXT NOT NULL,
	generated_at  TEXT NOT NULL,
	total_signals INTEGER NOT NULL,
	closed_trades INTEGER NOT NULL,
	win_rate      REAL NOT NULL,
	total_r       REAL NOT NULL,
	payload       TEXT NOT NULL
);
`

// SQLiteJournal stores trades and summaries in a local SQLite file
type SQLiteJournal struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteJournal(path string, logger *zap.Logger) (*SQLiteJournal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	logger.Named("sqlite").Info("✅ SQLite journal opened", zap.String("path", path))
	return &SQLiteJournal{db: db, logger: logger.Named("sqlite")}, nil
}

// SaveTrade upserts the trade row keyed by trade id
func (j *SQLiteJournal) SaveTrade(ctx context.Context, trade model.Trade) error {
	payload, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("encoding trade %s: %w", trade.ID, err)
	}

	var closedAt sql.NullString
	if trade.ClosedAt != nil {
		closedAt = sql.NullString{String: trade.ClosedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO trades
		(id, symbol, direction, market_class, timeframe, entry, stop_loss, tp1, tp2, tp3,
		 status, final_result, profit_r, opened_at, closed_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			symbol = excluded.symbol,
			direction = excluded.direction,
			market_class = excluded.market_class,
			timeframe = excluded.timeframe,
			entry = excluded.entry,
			stop_loss = excluded.stop_loss,
			tp1 = excluded.tp1,
			tp2 = excluded.tp2,
			tp3 = excluded.tp3,
			status = excluded.status,
			final_result = excluded.final_result,
			profit_r = excluded.profit_r,
			opened_at = excluded.opened_at,
			closed_at = excluded.closed_at,
			payload = excluded.payload`,
		trade.ID, trade.Symbol, string(trade.Direction), string(trade.MarketClass), string(trade.Timeframe),
		trade.Entry, trade.StopLoss, trade.TP1, trade.TP2, trade.TP3,
		string(trade.Status), trade.FinalResult, trade.ProfitR,
		trade.Timestamp.UTC().Format(time.RFC3339Nano), closedAt, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save trade %s: %w", trade.ID, err)
	}
	return nil
}

// SaveSummary appends a summary row. The trade list is left out of the payload.
func (j *SQLiteJournal) SaveSummary(ctx context.Context, stats model.WindowStats) error {
	stats.Trades = nil
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding %s summary: %w", stats.Window, err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO summaries
		(period, generated_at, total_signals, closed_trades, win_rate, total_r, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(stats.Window), stats.GeneratedAt.UTC().Format(time.RFC3339Nano),
		stats.TotalSignals, stats.ClosedTrades, stats.WinRate, stats.TotalR, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s summary: %w", stats.Window, err)
	}
	return nil
}

// LoadTrade reads a journaled trade back by id
func (j *SQLiteJournal) LoadTrade(ctx context.Context, id string) (model.Trade, bool, error) {
	var payload string
	err := j.db.QueryRowContext(ctx, `SELECT payload FROM trades WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return model.Trade{}, false, nil
	}
	if err != nil {
		return model.Trade{}, false, fmt.Errorf("loading trade %s: %w", id, err)
	}

	var trade model.Trade
	if err := json.Unmarshal([]byte(payload), &trade); err != nil {
		return model.Trade{}, false, fmt.Errorf("decoding trade %s: %w", id, err)
	}
	return trade, true, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
