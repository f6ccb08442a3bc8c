// Package daemon runs the sync engine unattended on a schedule.
//
// The scheduler cycles Idle → Running → (Success|Failed) → Sleeping. A run
// always completes once started; stop requests are honored only while
// sleeping. Run failures are reported through the notifier and never stop
// the loop.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/notify"
	syncapp "github.com/eshaffer321/ynab-amazon-sync/internal/application/sync"
)

// State is the scheduler's current phase.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSleeping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// Runner executes one sync pass. The orchestrator satisfies this through
// RunnerFunc at wiring time.
type Runner interface {
	Run(ctx context.Context) (*syncapp.RunSummary, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context) (*syncapp.RunSummary, error)

func (f RunnerFunc) Run(ctx context.Context) (*syncapp.RunSummary, error) {
	return f(ctx)
}

// Modes of scheduling.
const (
	ModeInterval = "interval"
	ModeWindows  = "windows"
)

// Config holds validated scheduler settings. Validation happens at startup
// in the config layer; the scheduler trusts what it receives.
type Config struct {
	Mode        string
	Interval    time.Duration
	MinInterval time.Duration
	MaxInterval time.Duration
	Windows     []Window
}

// Scheduler drives repeated sync runs.
type Scheduler struct {
	config   Config
	runner   Runner
	notifier notify.Notifier
	logger   *slog.Logger

	state    atomic.Int32
	runCount atomic.Int64

	// Injectable for tests
	now func() time.Time
	rng *rand.Rand
}

// New creates a scheduler. notifier may be nil to disable notifications.
func New(config Config, runner Runner, notifier notify.Notifier, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		config:   config,
		runner:   runner,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// State returns the scheduler's current phase.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// RunCount returns how many runs have started since the daemon came up.
func (s *Scheduler) RunCount() int64 {
	return s.runCount.Load()
}

// Start runs the loop until ctx is canceled. The first run executes
// immediately. Cancellation is observed only between runs, so an in-flight
// run always completes.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Daemon started", "mode", s.config.Mode)

	for {
		s.runOnce(ctx)

		delay := s.nextDelay()
		s.state.Store(int32(StateSleeping))
		s.logger.Info("Sleeping until next run",
			"next_run", s.now().Add(delay).Format(time.RFC3339),
			"sleep", delay.Round(time.Second),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.state.Store(int32(StateIdle))
			s.logger.Info("Daemon stopping", "runs", s.RunCount())
			return nil
		case <-timer.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.state.Store(int32(StateRunning))
	run := s.runCount.Add(1)

	// The run must survive a stop request; cancellation applies to the
	// sleep phase only.
	runCtx := context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Sync run panicked", "run", run, "panic", r)
			s.deliver(runCtx, notify.Event{
				StartedAt:   s.now().UTC(),
				CompletedAt: s.now().UTC(),
				Error:       fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	summary, err := s.runner.Run(runCtx)
	if err != nil {
		s.logger.Error("Sync run failed", "run", run, "error", err)
	}

	s.deliver(runCtx, eventFromSummary(summary, err))
}

func (s *Scheduler) deliver(ctx context.Context, event notify.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("Notification delivery failed", "error", err)
	}
}

func (s *Scheduler) nextDelay() time.Duration {
	if s.config.Mode == ModeWindows && len(s.config.Windows) > 0 {
		now := s.now()
		return NextRun(now, s.config.Windows, s.rng).Sub(now)
	}

	delay := s.config.Interval
	if s.config.MinInterval > 0 && delay < s.config.MinInterval {
		delay = s.config.MinInterval
	}
	if s.config.MaxInterval > 0 && delay > s.config.MaxInterval {
		delay = s.config.MaxInterval
	}
	return delay
}

func eventFromSummary(summary *syncapp.RunSummary, err error) notify.Event {
	event := notify.Event{}
	if summary != nil {
		event = notify.Event{
			RunID:       summary.RunID,
			StartedAt:   summary.StartedAt,
			CompletedAt: summary.CompletedAt,
			DryRun:      summary.DryRun,
			Matched:     summary.Matched,
			Updated:     summary.Updated,
			Unmatched:   summary.Unmatched,
			Failed:      summary.Failed,
		}
		if summary.Err != nil {
			event.Error = summary.Err.Error()
		}
	}
	if err != nil && event.Error == "" {
		event.Error = err.Error()
	}
	return event
}
