package config

import (
	"testing"
	"time"

	"trialstats/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"INPUT_FILE", "OUTPUT_DIR", "OUTPUT_FORMATS", "PORT", "GIN_MODE", "DATABASE_URL", "BACKUP_URL", "BACKUP_TIMEOUT", "PIPELINE_MAX_CONCURRENCY", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./output", cfg.Output.Dir)
	assert.Equal(t, []string{"xlsx", "md"}, cfg.Output.Formats)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Pipeline.MaxConcurrency)
	assert.Equal(t, 30*time.Second, cfg.Backup.Timeout)
	assert.Equal(t, "backup_wifi_fingerprints_virtual_machine", cfg.Backup.FilePrefix)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("INPUT_FILE", "data/trials.csv")
	t.Setenv("OUTPUT_FORMATS", "CSV, html")
	t.Setenv("BACKUP_URL", "http://10.0.0.5:8080/measurements/all")
	t.Setenv("BACKUP_TIMEOUT", "5s")
	t.Setenv("PIPELINE_MAX_CONCURRENCY", "8")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://trials@localhost/trials?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/trials.csv", cfg.Input.File)
	assert.Equal(t, []string{"csv", "html"}, cfg.Output.Formats)
	assert.Equal(t, 5*time.Second, cfg.Backup.Fetcher().Timeout)
	assert.Equal(t, 8, cfg.Pipeline.MaxConcurrency)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad gin mode", "GIN_MODE", "production"},
		{"bad port", "PORT", "http"},
		{"bad format", "OUTPUT_FORMATS", "pdf"},
		{"bad concurrency", "PIPELINE_MAX_CONCURRENCY", "0"},
		{"bad log level", "LOG_LEVEL", "loud"},
		{"bad backup url", "BACKUP_URL", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
