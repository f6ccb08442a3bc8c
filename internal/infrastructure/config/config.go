// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	budgetID := cfg.YNAB.BudgetID
//	dbPath := cfg.Storage.DatabasePath
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/ynab-amazon-sync/internal/application/daemon"
)

// Config represents the entire application configuration
type Config struct {
	YNAB          YNABConfig          `yaml:"ynab"`
	Amazon        AmazonConfig        `yaml:"amazon"`
	Matching      MatchingConfig      `yaml:"matching"`
	Memo          MemoConfig          `yaml:"memo"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Daemon        DaemonConfig        `yaml:"daemon"`
	Notify        NotifyConfig        `yaml:"notify"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// YNABConfig holds YNAB API settings
type YNABConfig struct {
	APIKey           string   `yaml:"api_key"`
	BudgetID         string   `yaml:"budget_id"`
	PayeeNeedsMemo   string   `yaml:"payee_needs_memo"`
	PayeeProcessed   string   `yaml:"payee_processed"`
	ApprovedStatuses []string `yaml:"approved_statuses"`
}

// AmazonConfig holds order source settings
type AmazonConfig struct {
	ScraperCommand string `yaml:"scraper_command"`
	Profile        string `yaml:"profile"`
	Headless       bool   `yaml:"headless"`
	LookbackDays   int    `yaml:"lookback_days"`
	MaxOrders      int    `yaml:"max_orders"`
	CachePath      string `yaml:"cache_path"`
	CacheTTLHours  int    `yaml:"cache_ttl_hours"`
}

// MatchingConfig holds matcher tuning
type MatchingConfig struct {
	DateToleranceDays int  `yaml:"date_tolerance_days"`
	RelaxedDateMatch  bool `yaml:"relaxed_date_match"`
	AutoAcceptDates   bool `yaml:"auto_accept_dates"`
}

// MemoConfig holds memo rendering options
type MemoConfig struct {
	MaxLength              int  `yaml:"max_length"`
	WithPrices             bool `yaml:"with_prices"`
	UseMarkdown            bool `yaml:"use_markdown"`
	SuppressPartialWarning bool `yaml:"suppress_partial_warning"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// DaemonConfig holds scheduler settings
type DaemonConfig struct {
	Mode               string `yaml:"mode"`                 // "interval" or "windows"
	IntervalMinutes    int    `yaml:"interval_minutes"`     // interval mode
	MinIntervalMinutes int    `yaml:"min_interval_minutes"` // lower clamp
	MaxIntervalMinutes int    `yaml:"max_interval_minutes"` // upper clamp
	Windows            string `yaml:"windows"`              // e.g. "6-8,18-20"
}

// NotifyConfig holds notification sinks
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${YNAB_API_KEY})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		YNAB: YNABConfig{
			APIKey:         os.Getenv("YNAB_API_KEY"),
			BudgetID:       os.Getenv("YNAB_BUDGET_ID"),
			PayeeNeedsMemo: getEnv("YNAB_PAYEE_NEEDS_MEMO", "Amazon - Needs Memo"),
			PayeeProcessed: getEnv("YNAB_PAYEE_PROCESSED", "Amazon"),
		},
		Amazon: AmazonConfig{
			ScraperCommand: getEnv("AMAZON_SCRAPER_COMMAND", "amazon-scraper"),
			Profile:        os.Getenv("AMAZON_PROFILE"),
			LookbackDays:   getEnvInt("AMAZON_LOOKBACK_DAYS", 31),
			MaxOrders:      getEnvInt("AMAZON_MAX_ORDERS", 0),
			CachePath:      os.Getenv("AMAZON_CACHE_PATH"),
		},
		OpenAI: OpenAIConfig{
			Enabled: os.Getenv("OPENAI_API_KEY") != "",
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Daemon: DaemonConfig{
			Mode:            getEnv("DAEMON_MODE", daemon.ModeInterval),
			IntervalMinutes: getEnvInt("DAEMON_INTERVAL_MINUTES", 360),
			Windows:         os.Getenv("DAEMON_WINDOWS"),
		},
		Notify: NotifyConfig{
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("SYNC_DB_PATH", "ynab_amazon_sync.db"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the specified path, falls back to
// environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func (c *Config) applyDefaults() {
	if c.YNAB.PayeeNeedsMemo == "" {
		c.YNAB.PayeeNeedsMemo = "Amazon - Needs Memo"
	}
	if c.YNAB.PayeeProcessed == "" {
		c.YNAB.PayeeProcessed = "Amazon"
	}
	if c.Amazon.ScraperCommand == "" {
		c.Amazon.ScraperCommand = "amazon-scraper"
	}
	if c.Amazon.LookbackDays == 0 {
		c.Amazon.LookbackDays = 31
	}
	if c.Amazon.CacheTTLHours == 0 {
		c.Amazon.CacheTTLHours = 2
	}
	if c.Matching.DateToleranceDays == 0 {
		c.Matching.DateToleranceDays = 5
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Daemon.Mode == "" {
		c.Daemon.Mode = daemon.ModeInterval
	}
	if c.Daemon.IntervalMinutes == 0 {
		c.Daemon.IntervalMinutes = 360
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "ynab_amazon_sync.db"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// Validate checks invariants that must hold before the process starts.
// Validation errors are fatal at startup only.
func (c *Config) Validate() error {
	if c.YNAB.APIKey == "" {
		return fmt.Errorf("ynab.api_key is required")
	}
	if c.YNAB.BudgetID == "" {
		return fmt.Errorf("ynab.budget_id is required")
	}
	if c.Amazon.LookbackDays < 1 || c.Amazon.LookbackDays > 365 {
		return fmt.Errorf("amazon.lookback_days must be between 1 and 365, got %d", c.Amazon.LookbackDays)
	}
	for _, status := range c.YNAB.ApprovedStatuses {
		if status != "approved" && status != "unapproved" {
			return fmt.Errorf("ynab.approved_statuses: unknown status %q", status)
		}
	}
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required when openai.enabled is true")
	}

	switch c.Daemon.Mode {
	case daemon.ModeInterval:
		if c.Daemon.IntervalMinutes <= 0 {
			return fmt.Errorf("daemon.interval_minutes must be positive, got %d", c.Daemon.IntervalMinutes)
		}
		if c.Daemon.MinIntervalMinutes < 0 || c.Daemon.MaxIntervalMinutes < 0 {
			return fmt.Errorf("daemon interval bounds must not be negative")
		}
		if c.Daemon.MinIntervalMinutes > 0 && c.Daemon.MaxIntervalMinutes > 0 &&
			c.Daemon.MinIntervalMinutes > c.Daemon.MaxIntervalMinutes {
			return fmt.Errorf("daemon.min_interval_minutes (%d) exceeds max_interval_minutes (%d)",
				c.Daemon.MinIntervalMinutes, c.Daemon.MaxIntervalMinutes)
		}
	case daemon.ModeWindows:
		if _, err := daemon.ParseWindows(c.Daemon.Windows); err != nil {
			return fmt.Errorf("daemon.windows: %w", err)
		}
	default:
		return fmt.Errorf("daemon.mode must be %q or %q, got %q",
			daemon.ModeInterval, daemon.ModeWindows, c.Daemon.Mode)
	}

	return nil
}

// SchedulerConfig converts the daemon section into scheduler settings.
// Call Validate first; window parse errors are ignored here.
func (c *Config) SchedulerConfig() daemon.Config {
	windows, _ := daemon.ParseWindows(c.Daemon.Windows)
	return daemon.Config{
		Mode:        c.Daemon.Mode,
		Interval:    time.Duration(c.Daemon.IntervalMinutes) * time.Minute,
		MinInterval: time.Duration(c.Daemon.MinIntervalMinutes) * time.Minute,
		MaxInterval: time.Duration(c.Daemon.MaxIntervalMinutes) * time.Minute,
		Windows:     windows,
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
