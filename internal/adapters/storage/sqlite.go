package storage

// sqlite.go: persistencia de resultados de torneo.
//
// El core corre entero en memoria; este sink solo escribe al terminar un run:
//   - `runs`: una fila por torneo (id, fechas, duración).
//   - `leaderboard`: una fila por estrategia y run, ya rankeada.
//   - `trades`: histórico completo de cada estrategia.
//   - `equity_points`: curva de equity completa de cada estrategia.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id      TEXT PRIMARY KEY,
    started_at  DATETIME NOT NULL,
    finished_at DATETIME NOT NULL,
    duration_s  REAL     NOT NULL
);

CREATE TABLE IF NOT EXISTS leaderboard (
    run_id        TEXT NOT NULL,
    rank          INTEGER NOT NULL,
    strategy      TEXT NOT NULL,
    net_pnl       REAL NOT NULL,
    pnl_percent   REAL NOT NULL,
    pnl_per_hour  REAL NOT NULL,
    max_drawdown  REAL NOT NULL,
    win_rate      REAL NOT NULL,
    avg_hold_s    REAL NOT NULL,
    trade_count   INTEGER NOT NULL,
    exposure_pct  REAL NOT NULL,
    final_equity  REAL NOT NULL,
    PRIMARY KEY (run_id, strategy)
);

CREATE TABLE IF NOT EXISTS trades (
    trade_id      TEXT PRIMARY KEY,
    run_id        TEXT NOT NULL,
    strategy      TEXT NOT NULL,
    instrument_id TEXT NOT NULL,
    side          TEXT NOT NULL,
    size          REAL NOT NULL,
    price         REAL NOT NULL,
    executed_at   DATETIME NOT NULL,
    realized_pnl  REAL NOT NULL,
    closing       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS equity_points (
    run_id    TEXT NOT NULL,
    strategy  TEXT NOT NULL,
    ts        DATETIME NOT NULL,
    equity    REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_board_run  ON leaderboard(run_id, rank);
CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, strategy);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity_points(run_id, strategy, ts);
`

// SQLiteSink implementa ports.ResultSink usando SQLite (pure Go, sin CGo).
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteSink: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteSink: apply schema: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// SaveRun persiste el resultado completo de un torneo en una transacción.
func (s *SQLiteSink) SaveRun(ctx context.Context, result domain.TournamentResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, duration_s) VALUES (?, ?, ?, ?)`,
		result.RunID, result.StartedAt.UTC(), result.FinishedAt.UTC(), result.Duration.Seconds(),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}

	for _, e := range result.Leaderboard {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO leaderboard
			 (run_id, rank, strategy, net_pnl, pnl_percent, pnl_per_hour, max_drawdown,
			  win_rate, avg_hold_s, trade_count, exposure_pct, final_equity)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID, e.Rank, e.StrategyName, e.NetPnL, e.PnLPercent, e.PnLPerHour,
			e.MaxDrawdown, e.WinRate, e.AvgHoldTime.Seconds(), e.TradeCount,
			e.ExposurePercent, e.FinalEquity,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert leaderboard %q: %w", e.StrategyName, err)
		}
	}

	for strategyName, trades := range result.Trades {
		for _, t := range trades {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO trades
				 (trade_id, run_id, strategy, instrument_id, side, size, price, executed_at, realized_pnl, closing)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, result.RunID, strategyName, t.InstrumentID, string(t.Side),
				t.Size, t.Price, t.Timestamp.UTC(), t.RealizedPnLDelta, boolToInt(t.Closing),
			); err != nil {
				return fmt.Errorf("storage.SaveRun: insert trade %q: %w", t.ID, err)
			}
		}
	}

	for strategyName, curve := range result.EquityCurve {
		for _, snap := range curve {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO equity_points (run_id, strategy, ts, equity) VALUES (?, ?, ?, ?)`,
				result.RunID, strategyName, snap.Timestamp.UTC(), snap.Equity,
			); err != nil {
				return fmt.Errorf("storage.SaveRun: insert equity point: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// Leaderboard devuelve la clasificación persistida de un run, en orden de rank.
func (s *SQLiteSink) Leaderboard(ctx context.Context, runID string) ([]domain.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, strategy, net_pnl, pnl_percent, pnl_per_hour, max_drawdown,
		        win_rate, avg_hold_s, trade_count, exposure_pct, final_equity
		 FROM leaderboard WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.Leaderboard: query: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		var holdSeconds float64
		if err := rows.Scan(&e.Rank, &e.StrategyName, &e.NetPnL, &e.PnLPercent,
			&e.PnLPerHour, &e.MaxDrawdown, &e.WinRate, &holdSeconds,
			&e.TradeCount, &e.ExposurePercent, &e.FinalEquity); err != nil {
			return nil, fmt.Errorf("storage.Leaderboard: scan: %w", err)
		}
		e.AvgHoldTime = time.Duration(holdSeconds * float64(time.Second))
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close cierra la conexión a la base de datos limpiamente.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
