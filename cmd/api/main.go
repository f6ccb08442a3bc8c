package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/ynab"
	"github.com/eshaffer321/ynab-amazon-sync/internal/api"
	"github.com/eshaffer321/ynab-amazon-sync/internal/api/handlers"
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
		port       = flag.Int("port", 8080, "HTTP port")
		origins    = flag.String("origins", "", "Comma-separated allowed CORS origins")
		readOnly   = flag.Bool("read-only", false, "Disable the sync trigger endpoint")
	)
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	serverCfg := api.DefaultConfig()
	serverCfg.Port = *port
	serverCfg.LookbackDays = cfg.Amazon.LookbackDays
	if *origins != "" {
		serverCfg.AllowedOrigins = strings.Split(*origins, ",")
	}

	var trigger handlers.SyncTrigger
	if !*readOnly {
		if err := cfg.Validate(); err != nil {
			logger.Error("Invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		trigger, err = buildOrchestrator(cfg, store, logger)
		if err != nil {
			logger.Error("Failed to build sync engine", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	server := api.NewServer(serverCfg, store, trigger, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", slog.String("error", err.Error()))
		}
	}
}

// buildOrchestrator wires the sync engine for API-triggered runs. Like the
// daemon, runs are unattended: ambiguous matches are skipped.
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

	renderer := memo.NewRenderer(memo.Config{
		MaxLength:              cfg.Memo.MaxLength,
		WithPrices:             cfg.Memo.WithPrices,
		UseMarkdown:            cfg.Memo.UseMarkdown,
		SuppressPartialWarning: cfg.Memo.SuppressPartialWarning,
	}, nil, logger)

	return syncapp.NewOrchestrator(syncapp.Config{
		BudgetID:         cfg.YNAB.BudgetID,
		PayeeNeedsMemo:   cfg.YNAB.PayeeNeedsMemo,
		PayeeProcessed:   cfg.YNAB.PayeeProcessed,
		ApprovedStatuses: cfg.YNAB.ApprovedStatuses,
	}, ynabClient, source, m, renderer, store, logger), nil
}
