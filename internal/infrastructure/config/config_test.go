package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-amazon-sync/internal/application/daemon"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func validConfig() *Config {
	cfg := &Config{
		YNAB: YNABConfig{
			APIKey:   "token",
			BudgetID: "budget-1",
		},
	}
	cfg.applyDefaults()
	return cfg
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
ynab:
  api_key: "token"
  budget_id: "budget-1"
  payee_needs_memo: "Amazon - Needs Memo"
  payee_processed: "Amazon"
amazon:
  profile: "default"
  lookback_days: 60
memo:
  with_prices: true
daemon:
  mode: "windows"
  windows: "6-8,18-20"
storage:
  database_path: "sync.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "budget-1", cfg.YNAB.BudgetID)
	assert.Equal(t, 60, cfg.Amazon.LookbackDays)
	assert.True(t, cfg.Memo.WithPrices)
	assert.Equal(t, "windows", cfg.Daemon.Mode)
	assert.Equal(t, "sync.db", cfg.Storage.DatabasePath)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
ynab:
  api_key: "token"
  budget_id: "budget-1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Amazon - Needs Memo", cfg.YNAB.PayeeNeedsMemo)
	assert.Equal(t, "Amazon", cfg.YNAB.PayeeProcessed)
	assert.Equal(t, "amazon-scraper", cfg.Amazon.ScraperCommand)
	assert.Equal(t, 31, cfg.Amazon.LookbackDays)
	assert.Equal(t, 2, cfg.Amazon.CacheTTLHours)
	assert.Equal(t, 5, cfg.Matching.DateToleranceDays)
	assert.Equal(t, daemon.ModeInterval, cfg.Daemon.Mode)
	assert.Equal(t, 360, cfg.Daemon.IntervalMinutes)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("YNAB_API_KEY", "env-token")
	t.Setenv("YNAB_BUDGET_ID", "env-budget")
	t.Setenv("SYNC_DB_PATH", "env.db")
	t.Setenv("AMAZON_LOOKBACK_DAYS", "45")

	cfg := LoadFromEnv()

	assert.Equal(t, "env-token", cfg.YNAB.APIKey)
	assert.Equal(t, "env-budget", cfg.YNAB.BudgetID)
	assert.Equal(t, "env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 45, cfg.Amazon.LookbackDays)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	t.Setenv("SYNC_DB_PATH", "fallback.db")

	cfg := LoadOrEnvWithPath("nonexistent.yaml")

	require.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_YNAB_KEY", "expanded-token")
	path := writeConfig(t, `
ynab:
  api_key: "${TEST_YNAB_KEY}"
  budget_id: "budget-1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-token", cfg.YNAB.APIKey)
}

func TestValidate(t *testing.T) {
	t.Run("valid defaults pass", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := validConfig()
		cfg.YNAB.APIKey = ""
		assert.ErrorContains(t, cfg.Validate(), "ynab.api_key")
	})

	t.Run("missing budget", func(t *testing.T) {
		cfg := validConfig()
		cfg.YNAB.BudgetID = ""
		assert.ErrorContains(t, cfg.Validate(), "ynab.budget_id")
	})

	t.Run("lookback out of range", func(t *testing.T) {
		cfg := validConfig()
		cfg.Amazon.LookbackDays = 400
		assert.ErrorContains(t, cfg.Validate(), "lookback_days")
	})

	t.Run("unknown approval status", func(t *testing.T) {
		cfg := validConfig()
		cfg.YNAB.ApprovedStatuses = []string{"pending"}
		assert.ErrorContains(t, cfg.Validate(), "approved_statuses")
	})

	t.Run("openai enabled without key", func(t *testing.T) {
		cfg := validConfig()
		cfg.OpenAI.Enabled = true
		cfg.OpenAI.APIKey = ""
		assert.ErrorContains(t, cfg.Validate(), "openai.api_key")
	})

	t.Run("interval bounds inverted", func(t *testing.T) {
		cfg := validConfig()
		cfg.Daemon.MinIntervalMinutes = 120
		cfg.Daemon.MaxIntervalMinutes = 60
		assert.ErrorContains(t, cfg.Validate(), "min_interval_minutes")
	})

	t.Run("bad window spec", func(t *testing.T) {
		cfg := validConfig()
		cfg.Daemon.Mode = daemon.ModeWindows
		cfg.Daemon.Windows = "8-6"
		assert.ErrorContains(t, cfg.Validate(), "daemon.windows")
	})

	t.Run("unknown mode", func(t *testing.T) {
		cfg := validConfig()
		cfg.Daemon.Mode = "hourly"
		assert.ErrorContains(t, cfg.Validate(), "daemon.mode")
	})
}

func TestSchedulerConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Daemon.Mode = daemon.ModeWindows
	cfg.Daemon.Windows = "6-8,18-20"
	cfg.Daemon.IntervalMinutes = 90

	sc := cfg.SchedulerConfig()

	assert.Equal(t, daemon.ModeWindows, sc.Mode)
	assert.Equal(t, 90*time.Minute, sc.Interval)
	assert.Equal(t, []daemon.Window{{Start: 6, End: 8}, {Start: 18, End: 20}}, sc.Windows)
}
