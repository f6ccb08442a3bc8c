package storage

// Repository defines the complete storage interface. Splitting it into
// focused sub-interfaces keeps consumers narrow and mocks small.
type Repository interface {
	RunRepository
	AnnotationRepository
	Close() error
}

// RunRepository tracks sync runs.
type RunRepository interface {
	// StartRun records the start of a run.
	StartRun(run *RunRecord) error

	// CompleteRun records counts and final status for a run.
	CompleteRun(run *RunRecord) error

	// GetRun retrieves a run by ID.
	GetRun(runID string) (*RunRecord, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]RunRecord, error)
}

// AnnotationFilters narrows annotation listings.
type AnnotationFilters struct {
	RunID    string // empty = all runs
	Status   string // empty = all statuses
	DaysBack int    // 0 = all time
	Limit    int    // 0 = default 50
	Offset   int
}

// AnnotationRepository records per-transaction annotation outcomes.
type AnnotationRepository interface {
	// SaveAnnotation inserts an annotation outcome.
	SaveAnnotation(record *AnnotationRecord) error

	// ListAnnotations returns annotations matching the filters, newest first.
	ListAnnotations(filters AnnotationFilters) ([]AnnotationRecord, error)

	// IsAnnotated reports whether a transaction already has a successful
	// non-dry-run annotation.
	IsAnnotated(transactionID string) bool

	// GetStats returns aggregate statistics over the last 30 days.
	GetStats() (*Stats, error)
}
