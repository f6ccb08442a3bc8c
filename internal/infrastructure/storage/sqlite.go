// Package storage persists sync runs and annotation outcomes in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for run and annotation records.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens (or creates) the SQLite database at dbPath and applies
// pending migrations.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun inserts a run record with status 'running'
func (s *Storage) StartRun(run *RunRecord) error {
	if run.Status == "" {
		run.Status = RunStatusRunning
	}

	query := `
		INSERT INTO sync_runs (id, started_at, lookback_days, dry_run, status)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.ID,
		run.StartedAt,
		run.LookbackDays,
		run.DryRun,
		run.Status,
	)
	return err
}

// CompleteRun records counts and final status for a run
func (s *Storage) CompleteRun(run *RunRecord) error {
	completedAt := time.Now().UTC()
	if run.CompletedAt != nil {
		completedAt = *run.CompletedAt
	}

	query := `
		UPDATE sync_runs
		SET completed_at = ?,
		    transactions_found = ?,
		    transactions_updated = ?,
		    transactions_skipped = ?,
		    transactions_errored = ?,
		    status = ?,
		    error_message = ?
		WHERE id = ?
	`

	_, err := s.db.Exec(query,
		completedAt,
		run.TransactionsFound,
		run.TransactionsUpdated,
		run.TransactionsSkipped,
		run.TransactionsErrored,
		run.Status,
		run.ErrorMessage,
		run.ID,
	)
	return err
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(runID string) (*RunRecord, error) {
	query := `
		SELECT id, started_at, completed_at, lookback_days, dry_run,
		       transactions_found, transactions_updated, transactions_skipped,
		       transactions_errored, status, error_message
		FROM sync_runs WHERE id = ?
	`

	run, err := scanRun(s.db.QueryRow(query, runID))
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, started_at, completed_at, lookback_days, dry_run,
		       transactions_found, transactions_updated, transactions_skipped,
		       transactions_errored, status, error_message
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	run := &RunRecord{}
	var completedAt sql.NullTime
	var errorMessage sql.NullString

	err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&completedAt,
		&run.LookbackDays,
		&run.DryRun,
		&run.TransactionsFound,
		&run.TransactionsUpdated,
		&run.TransactionsSkipped,
		&run.TransactionsErrored,
		&run.Status,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if errorMessage.Valid {
		run.ErrorMessage = errorMessage.String
	}
	return run, nil
}

// SaveAnnotation inserts an annotation outcome
func (s *Storage) SaveAnnotation(record *AnnotationRecord) error {
	if record.AnnotatedAt.IsZero() {
		record.AnnotatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO annotations
		(run_id, transaction_id, transaction_date, amount_milliunits,
		 order_number, memo, previous_memo, partial, date_delta_days,
		 status, reason, error_message, dry_run, annotated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		record.RunID,
		record.TransactionID,
		record.TransactionDate,
		record.AmountMilliunits,
		record.OrderNumber,
		record.Memo,
		record.PreviousMemo,
		record.Partial,
		record.DateDeltaDays,
		record.Status,
		record.Reason,
		record.ErrorMessage,
		record.DryRun,
		record.AnnotatedAt,
	)
	if err != nil {
		return err
	}

	record.ID, _ = result.LastInsertId()
	return nil
}

// ListAnnotations returns annotations matching the filters, newest first
func (s *Storage) ListAnnotations(filters AnnotationFilters) ([]AnnotationRecord, error) {
	query := `
		SELECT id, run_id, transaction_id, transaction_date, amount_milliunits,
		       order_number, memo, previous_memo, partial, date_delta_days,
		       status, reason, error_message, dry_run, annotated_at
		FROM annotations
		WHERE 1=1
	`
	var args []any

	if filters.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, filters.RunID)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	if filters.DaysBack > 0 {
		query += " AND annotated_at > datetime('now', ?)"
		args = append(args, fmt.Sprintf("-%d days", filters.DaysBack))
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY annotated_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filters.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []AnnotationRecord
	for rows.Next() {
		var record AnnotationRecord
		var orderNumber, memo, previousMemo, reason, errorMessage sql.NullString
		err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.TransactionID,
			&record.TransactionDate,
			&record.AmountMilliunits,
			&orderNumber,
			&memo,
			&previousMemo,
			&record.Partial,
			&record.DateDeltaDays,
			&record.Status,
			&reason,
			&errorMessage,
			&record.DryRun,
			&record.AnnotatedAt,
		)
		if err != nil {
			return nil, err
		}
		record.OrderNumber = orderNumber.String
		record.Memo = memo.String
		record.PreviousMemo = previousMemo.String
		record.Reason = reason.String
		record.ErrorMessage = errorMessage.String
		records = append(records, record)
	}

	return records, rows.Err()
}

// IsAnnotated checks if a transaction has a successful non-dry-run annotation
func (s *Storage) IsAnnotated(transactionID string) bool {
	var count int
	query := `SELECT COUNT(*) FROM annotations WHERE transaction_id = ? AND dry_run = 0 AND status = 'updated'`
	err := s.db.QueryRow(query, transactionID).Scan(&count)
	return err == nil && count > 0
}

// GetStats returns aggregate statistics over the last 30 days
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{}

	query := `
	SELECT
		COUNT(*) as total,
		COUNT(CASE WHEN status = 'updated' THEN 1 END) as updated,
		COUNT(CASE WHEN status = 'unmatched' THEN 1 END) as unmatched,
		COUNT(CASE WHEN status = 'failed' THEN 1 END) as failed,
		COUNT(CASE WHEN dry_run = 1 THEN 1 END) as dry_run,
		COUNT(CASE WHEN partial = 1 THEN 1 END) as partial,
		COALESCE(SUM(amount_milliunits), 0) as total_milliunits
	FROM annotations
	WHERE annotated_at > datetime('now', '-30 days')
	`

	err := s.db.QueryRow(query).Scan(
		&stats.TotalAnnotations,
		&stats.UpdatedCount,
		&stats.UnmatchedCount,
		&stats.FailedCount,
		&stats.DryRunCount,
		&stats.PartialCount,
		&stats.TotalMilliunits,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
