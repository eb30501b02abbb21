package api

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultFilePrefix names backups of the fingerprint measurement database.
const DefaultFilePrefix = "backup_wifi_fingerprints_virtual_machine"

// BackupConfig holds configuration for the measurement backup fetcher
type BackupConfig struct {
	URL        string        `json:"url"`
	Dir        string        `json:"dir"`
	FilePrefix string        `json:"file_prefix"`
	Timeout    time.Duration `json:"timeout"`
}

// DefaultBackupConfig returns defaults for everything but the URL
func DefaultBackupConfig() BackupConfig {
	return BackupConfig{
		Dir:        ".",
		FilePrefix: DefaultFilePrefix,
		Timeout:    30 * time.Second,
	}
}

// Validate checks if the configuration is valid
func (c BackupConfig) Validate() error {
	if c.URL == "" {
		return &ValidationError{Field: "URL", Message: "is required"}
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "URL", Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", c.URL)}
	}
	if c.Timeout <= 0 {
		return &ValidationError{Field: "Timeout", Message: "must be positive"}
	}
	if c.FilePrefix == "" {
		return &ValidationError{Field: "FilePrefix", Message: "is required"}
	}
	return nil
}

// ValidationError reports an invalid configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("backup config: %s %s", e.Field, e.Message)
}
