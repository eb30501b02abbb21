package migration

import (
	"context"
	"log"

	"trialstats/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every
// statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysisRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_runs table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createAnalysisRunsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id          UUID PRIMARY KEY,
			analysis        TEXT NOT NULL,
			definition_hash TEXT NOT NULL,
			source          TEXT NOT NULL,
			trial_count     INTEGER NOT NULL,
			group_count     INTEGER NOT NULL,
			summary         JSONB NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL
		)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return errors.DatabaseError("create analysis_runs", err)
	}
	return nil
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_analysis_created ON analysis_runs(analysis, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_runs_definition_hash ON analysis_runs(definition_hash)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			log.Printf("[Migration] Warning: failed to create index: %v", err)
		}
	}

	return nil
}
