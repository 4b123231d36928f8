package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"FinDash/internal/domain/models"

	_ "modernc.org/sqlite"
)

// SQLiteRunLedger keeps a history of training runs and per-ticker outcomes.
type SQLiteRunLedger struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRunLedger opens (or creates) the ledger database and runs migrations.
func NewSQLiteRunLedger(path string) (*SQLiteRunLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	l := &SQLiteRunLedger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return l, nil
}

func (l *SQLiteRunLedger) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS training_runs (
			run_id      TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER,
			trained     INTEGER NOT NULL DEFAULT 0,
			skipped     INTEGER NOT NULL DEFAULT 0,
			failed      INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON training_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS ticker_results (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL,
			ticker           TEXT NOT NULL,
			outcome          TEXT NOT NULL,
			reason           TEXT,
			row_count        INTEGER,
			train_rows       INTEGER,
			test_rows        INTEGER,
			test_accuracy    REAL,
			anomaly_fraction REAL,
			artifacts        TEXT,
			duration_ms      INTEGER,
			finished_at      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON ticker_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_ticker ON ticker_results(ticker, finished_at)`,
	}

	for _, s := range stmts {
		if _, err := l.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (l *SQLiteRunLedger) StartRun(ctx context.Context, runID string, startedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO training_runs (run_id, started_at) VALUES (?, ?)`,
		runID, startedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

func (l *SQLiteRunLedger) RecordResult(ctx context.Context, r models.TickerResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kinds := make([]string, len(r.Artifacts))
	for i, k := range r.Artifacts {
		kinds[i] = string(k)
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO ticker_results (
			run_id, ticker, outcome, reason, row_count, train_rows, test_rows,
			test_accuracy, anomaly_fraction, artifacts, duration_ms, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Ticker, string(r.Outcome), r.Reason, r.Rows, r.TrainRows, r.TestRows,
		r.TestAccuracy, r.AnomalyFraction, strings.Join(kinds, ","), r.Duration.Milliseconds(),
		r.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("record result %s: %w", r.Ticker, err)
	}
	return nil
}

func (l *SQLiteRunLedger) FinishRun(ctx context.Context, rep models.RunReport) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx,
		`UPDATE training_runs SET finished_at = ?, trained = ?, skipped = ?, failed = ? WHERE run_id = ?`,
		rep.FinishedAt.UnixMilli(), rep.Trained, rep.Skipped, rep.Failed, rep.RunID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (l *SQLiteRunLedger) RecentRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, trained, skipped, failed
		 FROM training_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var out []models.RunSummary
	for rows.Next() {
		var (
			s        models.RunSummary
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&s.RunID, &started, &finished, &s.Trained, &s.Skipped, &s.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.StartedAt = time.UnixMilli(started).UTC()
		if finished.Valid {
			t := time.UnixMilli(finished.Int64).UTC()
			s.FinishedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Outcomes returns how many results of a run ended in each outcome.
func (l *SQLiteRunLedger) Outcomes(ctx context.Context, runID string) (map[models.Outcome]int, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM ticker_results WHERE run_id = ? GROUP BY outcome`, runID)
	if err != nil {
		return nil, fmt.Errorf("outcomes: %w", err)
	}
	defer rows.Close()

	out := map[models.Outcome]int{}
	for rows.Next() {
		var (
			o string
			n int
		)
		if err := rows.Scan(&o, &n); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out[models.Outcome(o)] = n
	}
	return out, rows.Err()
}

func (l *SQLiteRunLedger) Close() error {
	return l.db.Close()
}
