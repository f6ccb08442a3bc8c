package dto

import "time"

// RunResponse is one sync run.
type RunResponse struct {
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

// RunListResponse wraps a list of runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// AnnotationResponse is one annotation outcome.
type AnnotationResponse struct {
	ID               int64     `json:"id"`
	RunID            string    `json:"run_id"`
	TransactionID    string    `json:"transaction_id"`
	TransactionDate  time.Time `json:"transaction_date"`
	AmountMilliunits int64     `json:"amount_milliunits"`
	OrderNumber      string    `json:"order_number,omitempty"`
	Memo             string    `json:"memo,omitempty"`
	Partial          bool      `json:"partial"`
	DateDeltaDays    int       `json:"date_delta_days"`
	Status           string    `json:"status"`
	Reason           string    `json:"reason,omitempty"`
	DryRun           bool      `json:"dry_run"`
	AnnotatedAt      time.Time `json:"annotated_at"`
}

// AnnotationListResponse wraps a list of annotations.
type AnnotationListResponse struct {
	Annotations []AnnotationResponse `json:"annotations"`
	Count       int                  `json:"count"`
}

// StatsResponse reports aggregate annotation statistics.
type StatsResponse struct {
	TotalAnnotations int   `json:"total_annotations"`
	UpdatedCount     int   `json:"updated_count"`
	UnmatchedCount   int   `json:"unmatched_count"`
	FailedCount      int   `json:"failed_count"`
	DryRunCount      int   `json:"dry_run_count"`
	PartialCount     int   `json:"partial_count"`
	TotalMilliunits  int64 `json:"total_milliunits"`
}

// SyncTriggerRequest asks for a one-off sync run.
type SyncTriggerRequest struct {
	DryRun       bool `json:"dry_run"`
	LookbackDays int  `json:"lookback_days,omitempty"`
}

// SyncTriggerResponse reports the outcome of a triggered run.
type SyncTriggerResponse struct {
	RunID             string `json:"run_id"`
	DryRun            bool   `json:"dry_run"`
	TransactionsFound int    `json:"transactions_found"`
	Matched           int    `json:"matched"`
	Updated           int    `json:"updated"`
	Skipped           int    `json:"skipped"`
	Unmatched         int    `json:"unmatched"`
	Failed            int    `json:"failed"`
	Error             string `json:"error,omitempty"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status string `json:"status"`
}
