package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/notify"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/openai"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/ynab"
	"github.com/eshaffer321/ynab-amazon-sync/internal/application/daemon"
	syncapp "github.com/eshaffer321/ynab-amazon-sync/internal/application/sync"
	"github.com/eshaffer321/ynab-amazon-sync/internal/domain/matcher"
	"github.com/eshaffer321/ynab-amazon-sync/internal/domain/memo"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/config"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/logging"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/storage"
)

func main() {
	var (
		configFile = flag.String("config", "config.yaml", "Path to config file")
		dryRun     = flag.Bool("dry-run", false, "Preview changes without applying")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)
	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "daemon")

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	orchestrator, err := buildOrchestrator(cfg, store, logger)
	if err != nil {
		logger.Error("Failed to build sync engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	opts := syncapp.Options{
		DryRun:       *dryRun,
		LookbackDays: cfg.Amazon.LookbackDays,
		MaxOrders:    cfg.Amazon.MaxOrders,
	}
	runner := daemon.RunnerFunc(func(ctx context.Context) (*syncapp.RunSummary, error) {
		return orchestrator.Run(ctx, opts)
	})

	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.WebhookURL))
	}

	scheduler := daemon.New(cfg.SchedulerConfig(), runner, notify.NewMulti(notifiers...), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting daemon",
		slog.String("mode", cfg.Daemon.Mode),
		slog.Bool("dry_run", *dryRun))

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Scheduler stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Daemon stopped")
}

// buildOrchestrator wires the sync engine for unattended runs. Ambiguous
// matches are always skipped and the browser runs headless.
func buildOrchestrator(cfg *config.Config, store storage.Repository, logger *slog.Logger) (*syncapp.Orchestrator, error) {
	ynabClient := ynab.NewClient(cfg.YNAB.APIKey, logger)

	scraper, err := amazon.NewScraperSource(amazon.ScraperConfig{
		Command:  cfg.Amazon.ScraperCommand,
		Profile:  cfg.Amazon.Profile,
		Headless: true,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("order source: %w", err)
	}

	var source amazon.Source = scraper
	if cfg.Amazon.CachePath != "" {
		ttl := time.Duration(cfg.Amazon.CacheTTLHours) * time.Hour
		source = amazon.NewCachedSource(scraper, cfg.Amazon.CachePath, ttl, logger)
	}

	var dates matcher.DateMismatchPolicy = matcher.RejectDates{}
	if cfg.Matching.AutoAcceptDates {
		dates = matcher.AcceptDates{}
	}

	m := matcher.New(matcher.Config{
		DateToleranceDays: cfg.Matching.DateToleranceDays,
		RelaxedDateMatch:  cfg.Matching.RelaxedDateMatch,
	}, matcher.RejectAmbiguous{}, dates, logger)

	var summarizer memo.Summarizer
	if cfg.OpenAI.Enabled {
		openaiCfg := openai.DefaultConfig()
		openaiCfg.APIKey = cfg.OpenAI.APIKey
		if cfg.OpenAI.Model != "" {
			openaiCfg.Model = cfg.OpenAI.Model
		}
		summarizer = openai.NewSummarizer(openaiCfg)
	}

	renderer := memo.NewRenderer(memo.Config{
		MaxLength:              cfg.Memo.MaxLength,
		WithPrices:             cfg.Memo.WithPrices,
		UseMarkdown:            cfg.Memo.UseMarkdown,
		SuppressPartialWarning: cfg.Memo.SuppressPartialWarning,
	}, summarizer, logger)

	return syncapp.NewOrchestrator(syncapp.Config{
		BudgetID:         cfg.YNAB.BudgetID,
		PayeeNeedsMemo:   cfg.YNAB.PayeeNeedsMemo,
		PayeeProcessed:   cfg.YNAB.PayeeProcessed,
		ApprovedStatuses: cfg.YNAB.ApprovedStatuses,
	}, ynabClient, source, m, renderer, store, logger), nil
}
