// Package config loads process configuration from the environment. Every
// setting has a CLI flag counterpart; environment values act as defaults so
// recurring runs can be pinned in a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"rateio/internal/logger"
)

// Defaults for the billing-cycle rule and the batch pipeline.
const (
	DefaultCutoffDay       = 12
	DefaultRecentYearsBack = 1
	DefaultBatchWorkers    = 8
)

type Config struct {
	// Billing-cycle assignment
	CutoffDay int // readings after this day of month belong to the next cycle

	// Reading-date heuristic: accept dates from (current year - RecentYearsBack)
	// through the current year when collecting date tokens from a page.
	RecentYearsBack int

	// Optional cycle filter (MM/YYYY); empty means keep every record.
	TargetCycle string

	// IssueDateDefault is the last-resort issue date (DD/MM/YYYY) when the
	// invoice carries neither an issue date nor a current reading date.
	// Empty means "today", which makes re-runs across days non-identical,
	// so pin it for reproducible reports.
	IssueDateDefault string

	// Batch pipeline
	BatchWorkers int
	RosterPath   string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		CutoffDay:        getEnvInt("CUTOFF_DAY", DefaultCutoffDay),
		RecentYearsBack:  getEnvInt("RECENT_YEARS_BACK", DefaultRecentYearsBack),
		TargetCycle:      getEnv("TARGET_CYCLE", ""),
		IssueDateDefault: getEnv("ISSUE_DATE_DEFAULT", ""),
		BatchWorkers:     getEnvInt("BATCH_WORKERS", DefaultBatchWorkers),
		RosterPath:       getEnv("ROSTER_PATH", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:    getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:        getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.CutoffDay < 1 || c.CutoffDay > 28 {
		return fmt.Errorf("CUTOFF_DAY must be between 1 and 28, got %d", c.CutoffDay)
	}
	if c.RecentYearsBack < 0 {
		return fmt.Errorf("RECENT_YEARS_BACK must not be negative, got %d", c.RecentYearsBack)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1, got %d", c.BatchWorkers)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
