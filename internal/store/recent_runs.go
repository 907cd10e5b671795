package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/randytsao24/ctaglass/internal/logging"
)

// LoadRecentRuns returns the saved run numbers, most recent first
func (db *DB) LoadRecentRuns(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT run_number FROM recent_runs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, db.logger, "load recent runs")

	runs := []string{}
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, fmt.Errorf("failed to scan recent run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recent runs: %w", err)
	}
	return runs, nil
}

// SaveRecentRuns replaces the saved list with runs, in order
func (db *DB) SaveRecentRuns(ctx context.Context, runs []string) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, db.logger, "save recent runs")

	if _, err := tx.ExecContext(ctx, `DELETE FROM recent_runs`); err != nil {
		return fmt.Errorf("failed to clear recent runs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO recent_runs (position, run_number, saved_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer logging.SafeCloseWithLogging(stmt, db.logger, "save recent runs")

	savedAt := db.now().UTC().Format(time.RFC3339)
	for i, run := range runs {
		if _, err := stmt.ExecContext(ctx, i, run, savedAt); err != nil {
			return fmt.Errorf("failed to insert run %s: %w", run, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recent runs: %w", err)
	}

	logging.LogOperation(db.logger, "recent_runs_saved",
		slog.Int("count", len(runs)),
		slog.Duration("duration", time.Since(start)))
	return nil
}
