package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/openai"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/ynab"
	syncapp "github.com/eshaffer321/ynab-amazon-sync/internal/application/sync"
	"github.com/eshaffer321/ynab-amazon-sync/internal/cli"
	"github.com/eshaffer321/ynab-amazon-sync/internal/domain/matcher"
	"github.com/eshaffer321/ynab-amazon-sync/internal/domain/memo"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/config"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/logging"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/storage"
)

func main() {
	flags := cli.ParseSyncFlags()

	cfg := config.LoadOrEnvWithPath(flags.ConfigPath)
	if flags.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "sync")

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

	orchestrator, err := buildOrchestrator(cfg, store, flags, logger)
	if err != nil {
		logger.Error("Failed to build sync engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cli.PrintHeader(flags.DryRun)

	summary, err := orchestrator.Run(context.Background(), flags.ToSyncOptions(cfg.Amazon.LookbackDays))
	if err != nil {
		logger.Error("Sync failed", slog.String("error", err.Error()))
	}

	if flags.DryRun {
		cli.PrintDiffs(summary.Diffs)
	}
	cli.PrintRunSummary(summary, store)

	if err != nil {
		os.Exit(1)
	}
}

func buildOrchestrator(cfg *config.Config, store storage.Repository, flags cli.SyncFlags, logger *slog.Logger) (*syncapp.Orchestrator, error) {
	ynabClient := ynab.NewClient(cfg.YNAB.APIKey, logger)

	source, err := buildOrderSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	prompter := cli.NewPrompter(os.Stdin, os.Stdout)

	var ambiguity matcher.AmbiguityPolicy = prompter
	if flags.NonInteractive {
		ambiguity = matcher.RejectAmbiguous{}
	}

	var dates matcher.DateMismatchPolicy = prompter
	switch {
	case cfg.Matching.AutoAcceptDates:
		dates = matcher.AcceptDates{}
	case flags.NonInteractive:
		dates = matcher.RejectDates{}
	}

	m := matcher.New(matcher.Config{
		DateToleranceDays: cfg.Matching.DateToleranceDays,
		RelaxedDateMatch:  cfg.Matching.RelaxedDateMatch,
	}, ambiguity, dates, logger)

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

func buildOrderSource(cfg *config.Config, logger *slog.Logger) (amazon.Source, error) {
	scraper, err := amazon.NewScraperSource(amazon.ScraperConfig{
		Command:  cfg.Amazon.ScraperCommand,
		Profile:  cfg.Amazon.Profile,
		Headless: cfg.Amazon.Headless,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("order source: %w", err)
	}

	if cfg.Amazon.CachePath == "" {
		return scraper, nil
	}

	ttl := time.Duration(cfg.Amazon.CacheTTLHours) * time.Hour
	return amazon.NewCachedSource(scraper, cfg.Amazon.CachePath, ttl, logger), nil
}
