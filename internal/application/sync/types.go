package sync

import (
	"log/slog"
	"time"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/ynab"
	"github.com/eshaffer321/ynab-amazon-sync/internal/domain/matcher"
	"github.com/eshaffer321/ynab-amazon-sync/internal/domain/memo"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/storage"
)

// Config holds the static wiring for the sync engine.
type Config struct {
	BudgetID         string
	PayeeNeedsMemo   string
	PayeeProcessed   string
	ApprovedStatuses []string
}

// Options holds per-run settings.
type Options struct {
	DryRun         bool
	Force          bool
	MatchEmptyMemo bool
	LookbackDays   int
	MaxOrders      int
	OrderNumber    string // if set, only annotate against this order
	ForceRefresh   bool   // bypass the order cache
}

// MemoDiff describes one pending memo change, reported on dry runs.
type MemoDiff struct {
	TransactionID string          `json:"transaction_id"`
	Date          time.Time       `json:"date"`
	Amount        ynab.Milliunits `json:"amount"`
	OrderNumber   string          `json:"order_number"`
	OldMemo       string          `json:"old_memo"`
	NewMemo       string          `json:"new_memo"`
}

// RunSummary reports the outcome of one sync run. Run always returns a
// summary, even on fatal errors.
type RunSummary struct {
	RunID             string
	StartedAt         time.Time
	CompletedAt       time.Time
	DryRun            bool
	TransactionsFound int
	Matched           int
	Updated           int
	Skipped           int
	Unmatched         int
	Failed            int
	Diffs             []MemoDiff
	Errors            []error
	Err               error // fatal error, nil when the run completed
}

// Orchestrator drives one sync pass: fetch, match, render, write back.
type Orchestrator struct {
	config   Config
	api      ynab.API
	source   amazon.Source
	matcher  *matcher.Matcher
	renderer *memo.Renderer
	repo     storage.Repository
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrchestrator creates a sync orchestrator. repo may be nil to disable
// run tracking.
func NewOrchestrator(
	config Config,
	api ynab.API,
	source amazon.Source,
	m *matcher.Matcher,
	renderer *memo.Renderer,
	repo storage.Repository,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		config:   config,
		api:      api,
		source:   source,
		matcher:  m,
		renderer: renderer,
		repo:     repo,
		logger:   logger,
		now:      time.Now,
	}
}
