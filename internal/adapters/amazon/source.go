package amazon

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
)

// Source yields Amazon order history for a lookback window.
type Source interface {
	FetchOrders(ctx context.Context, opts FetchOptions) ([]Order, error)
}

// validProfilePattern matches alphanumeric, dash, and underscore characters only
var validProfilePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ScraperSource fetches orders by shelling out to the amazon-order-scraper
// CLI. Authentication is the CLI's concern - run `amazon-scraper --login`
// once to establish a session.
type ScraperSource struct {
	logger   *slog.Logger
	command  string
	profile  string // optional profile name for multi-account support
	headless bool
}

// ScraperConfig holds configuration for the scraper source.
type ScraperConfig struct {
	Command  string // defaults to "amazon-scraper"
	Profile  string
	Headless bool // run the browser headless (for daemon/cron runs)
}

// NewScraperSource creates a scraper-backed source.
func NewScraperSource(cfg ScraperConfig, logger *slog.Logger) (*ScraperSource, error) {
	if cfg.Profile != "" && !validProfilePattern.MatchString(cfg.Profile) {
		return nil, fmt.Errorf("invalid profile name %q", cfg.Profile)
	}
	command := cfg.Command
	if command == "" {
		command = "amazon-scraper"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScraperSource{
		logger:   logger.With("system", "amazon"),
		command:  command,
		profile:  cfg.Profile,
		headless: cfg.Headless,
	}, nil
}

// FetchOrders runs the scraper CLI and parses its JSON output.
func (s *ScraperSource) FetchOrders(ctx context.Context, opts FetchOptions) ([]Order, error) {
	args := []string{"--json", "--days", strconv.Itoa(opts.Days)}
	if s.profile != "" {
		args = append(args, "--profile", s.profile)
	}
	if s.headless {
		args = append(args, "--headless")
	}

	s.logger.Debug("Running order scraper", "command", s.command, "days", opts.Days)

	cmd := exec.CommandContext(ctx, s.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("scraper failed: %w (stderr: %s)", err, stderr.String())
	}

	orders, err := ParseScraperOutput(&stdout, s.logger)
	if err != nil {
		return nil, err
	}

	if opts.MaxOrders > 0 && len(orders) > opts.MaxOrders {
		orders = orders[:opts.MaxOrders]
	}

	s.logger.Debug("Fetched orders", "count", len(orders))
	return orders, nil
}
