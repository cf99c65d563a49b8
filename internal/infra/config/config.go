package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken     string // Empty disables the bot; notifications go to the log
	OwnerTelegramID   int64
	DatabaseURL       string // Empty selects the in-memory store
	LogLevel          string
	Environment       string
	CronSpecDueCheck  string // Books due rules
	CronSpecReminder  string // Re-sends pending manual confirmations
	DefaultLedgerID   string
	RunOnStartup      bool
	JobTimeout        time.Duration
	ApplySchemaOnBoot bool
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	ownerIDStr := os.Getenv("OWNER_TELEGRAM_ID")
	if ownerIDStr == "" && cfg.TelegramToken != "" {
		return nil, fmt.Errorf("OWNER_TELEGRAM_ID is not set")
	}
	if ownerIDStr != "" {
		cfg.OwnerTelegramID, err = strconv.ParseInt(ownerIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OWNER_TELEGRAM_ID: %w", err)
		}
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecDueCheck = os.Getenv("CRON_SPEC_DUE_CHECK")
	if cfg.CronSpecDueCheck == "" {
		cfg.CronSpecDueCheck = "0 8 * * *" // Default: 8:00 AM daily
	}

	cfg.CronSpecReminder = os.Getenv("CRON_SPEC_REMINDER")
	if cfg.CronSpecReminder == "" {
		cfg.CronSpecReminder = "0 19 * * *" // Default: 7:00 PM daily
	}

	cfg.DefaultLedgerID = os.Getenv("DEFAULT_LEDGER_ID")
	if cfg.DefaultLedgerID == "" {
		cfg.DefaultLedgerID = "personal"
	}

	cfg.RunOnStartup, err = boolEnv("RUN_ON_STARTUP", true)
	if err != nil {
		return nil, err
	}

	cfg.ApplySchemaOnBoot, err = boolEnv("APPLY_SCHEMA", true)
	if err != nil {
		return nil, err
	}

	cfg.JobTimeout = 2 * time.Minute
	if v := os.Getenv("JOB_TIMEOUT"); v != "" {
		cfg.JobTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JOB_TIMEOUT: %w", err)
		}
		if cfg.JobTimeout <= 0 {
			return nil, fmt.Errorf("invalid JOB_TIMEOUT: must be positive")
		}
	}

	return cfg, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
