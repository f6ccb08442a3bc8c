package storage

import "time"

// Run statuses.
const (
	RunStatusRunning            = "running"
	RunStatusCompleted          = "completed"
	RunStatusCompletedWithError = "completed_with_errors"
	RunStatusFailed             = "failed"
)

// Annotation statuses.
const (
	AnnotationStatusUpdated   = "updated"
	AnnotationStatusDryRun    = "dry_run"
	AnnotationStatusUnmatched = "unmatched"
	AnnotationStatusFailed    = "failed"
)

// RunRecord tracks one sync run from start to completion.
type RunRecord struct {
	ID                  string     `json:"id"`
	StartedAt           time.Time  `json:"started_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	LookbackDays        int        `json:"lookback_days"`
	DryRun              bool       `json:"dry_run"`
	TransactionsFound   int        `json:"transactions_found"`
	TransactionsUpdated int        `json:"transactions_updated"`
	TransactionsSkipped int        `json:"transactions_skipped"`
	TransactionsErrored int        `json:"transactions_errored"`
	Status              string     `json:"status"`
	ErrorMessage        string     `json:"error_message,omitempty"`
}

// AnnotationRecord stores the outcome of annotating one transaction.
type AnnotationRecord struct {
	ID               int64     `json:"id"`
	RunID            string    `json:"run_id"`
	TransactionID    string    `json:"transaction_id"`
	TransactionDate  time.Time `json:"transaction_date"`
	AmountMilliunits int64     `json:"amount_milliunits"`
	OrderNumber      string    `json:"order_number,omitempty"`
	Memo             string    `json:"memo,omitempty"`
	PreviousMemo     string    `json:"previous_memo,omitempty"`
	Partial          bool      `json:"partial"`
	DateDeltaDays    int       `json:"date_delta_days"`
	Status           string    `json:"status"`
	Reason           string    `json:"reason,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	DryRun           bool      `json:"dry_run"`
	AnnotatedAt      time.Time `json:"annotated_at"`
}

// Stats aggregates annotation outcomes over the last 30 days.
type Stats struct {
	TotalAnnotations int   `json:"total_annotations"`
	UpdatedCount     int   `json:"updated_count"`
	UnmatchedCount   int   `json:"unmatched_count"`
	FailedCount      int   `json:"failed_count"`
	DryRunCount      int   `json:"dry_run_count"`
	PartialCount     int   `json:"partial_count"`
	TotalMilliunits  int64 `json:"total_milliunits"`
}
