package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TELEGRAM_TOKEN", "OWNER_TELEGRAM_ID", "DATABASE_URL", "LOG_LEVEL", "ENVIRONMENT",
		"CRON_SPEC_DUE_CHECK", "CRON_SPEC_REMINDER", "DEFAULT_LEDGER_ID", "RUN_ON_STARTUP",
		"APPLY_SCHEMA", "JOB_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.TelegramToken)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0 8 * * *", cfg.CronSpecDueCheck)
	assert.Equal(t, "0 19 * * *", cfg.CronSpecReminder)
	assert.Equal(t, "personal", cfg.DefaultLedgerID)
	assert.True(t, cfg.RunOnStartup)
	assert.True(t, cfg.ApplySchemaOnBoot)
	assert.Equal(t, 2*time.Minute, cfg.JobTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("OWNER_TELEGRAM_ID", "12345")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("RUN_ON_STARTUP", "false")
	t.Setenv("JOB_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(12345), cfg.OwnerTelegramID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.RunOnStartup)
	assert.Equal(t, 45*time.Second, cfg.JobTimeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"token without owner", map[string]string{"TELEGRAM_TOKEN": "token"}, "OWNER_TELEGRAM_ID is not set"},
		{"owner not numeric", map[string]string{"OWNER_TELEGRAM_ID": "abc"}, "invalid OWNER_TELEGRAM_ID"},
		{"bad bool", map[string]string{"RUN_ON_STARTUP": "maybe"}, "invalid RUN_ON_STARTUP"},
		{"bad timeout", map[string]string{"JOB_TIMEOUT": "soon"}, "invalid JOB_TIMEOUT"},
		{"negative timeout", map[string]string{"JOB_TIMEOUT": "-1s"}, "invalid JOB_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
