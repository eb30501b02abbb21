package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"trialstats/adapters/api"
	"trialstats/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Input    InputConfig
	Output   OutputConfig
	Server   ServerConfig
	Database DatabaseConfig
	Backup   BackupConfig
	Pipeline PipelineConfig
	LogLevel string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// InputConfig names the default trial file and the analyses definitions
type InputConfig struct {
	File         string
	AnalysesFile string
}

// OutputConfig holds the export settings
type OutputConfig struct {
	Dir     string   `validate:"required"`
	Formats []string `validate:"required,min=1,dive,oneof=xlsx csv md html json"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string `validate:"required,numeric"`
	GinMode     string `validate:"oneof=debug release test"`
	MaxUploadMB int    `validate:"min=1,max=1024"`
}

// DatabaseConfig holds database connection settings. An empty URL disables
// the PostgreSQL source and run history.
type DatabaseConfig struct {
	URL        string
	TrialQuery string
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// BackupConfig holds the measurement backup settings
type BackupConfig struct {
	URL        string        `validate:"omitempty,url"`
	Dir        string        `validate:"required"`
	FilePrefix string        `validate:"required"`
	Timeout    time.Duration `validate:"gt=0"`
}

// Fetcher converts the settings into the adapter configuration.
func (b BackupConfig) Fetcher() api.BackupConfig {
	return api.BackupConfig{
		URL:        b.URL,
		Dir:        b.Dir,
		FilePrefix: b.FilePrefix,
		Timeout:    b.Timeout,
	}
}

// PipelineConfig bounds the application layer
type PipelineConfig struct {
	MaxConcurrency int `validate:"min=1,max=64"`
}

var validate = validator.New()

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Input: InputConfig{
			File:         getEnvOrDefault("INPUT_FILE", ""),
			AnalysesFile: getEnvOrDefault("ANALYSES_FILE", ""),
		},
		Output: OutputConfig{
			Dir:     getEnvOrDefault("OUTPUT_DIR", "./output"),
			Formats: getEnvListOrDefault("OUTPUT_FORMATS", []string{"xlsx", "md"}),
		},
		Server:   *loadServerConfig(),
		Database: *loadDatabaseConfig(),
		Backup: BackupConfig{
			URL:        getEnvOrDefault("BACKUP_URL", ""),
			Dir:        getEnvOrDefault("BACKUP_DIR", "./backups"),
			FilePrefix: getEnvOrDefault("BACKUP_FILE_PREFIX", api.DefaultFilePrefix),
			Timeout:    getEnvDurationOrDefault("BACKUP_TIMEOUT", 30*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxConcurrency: getEnvIntOrDefault("PIPELINE_MAX_CONCURRENCY", 4),
		},
		LogLevel: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:        getEnvOrDefault("PORT", "8080"),
		GinMode:     getEnvOrDefault("GIN_MODE", "debug"),
		MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", 32),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:        getEnvOrDefault("DATABASE_URL", ""),
		TrialQuery: getEnvOrDefault("TRIAL_QUERY", ""),
	}
}

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return errors.ConfigInvalid(describeValidation(err))
	}
	return nil
}

// describeValidation flattens validator errors into one readable line.
func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	return strings.Join(parts, "; ")
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
