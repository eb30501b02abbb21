package postgres

import (
	"context"
	"fmt"

	"trialstats/internal/errors"
	"trialstats/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepository stores analysis run summaries in the analysis_runs table
// created by internal/migration
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save inserts one run.
func (r *RunRepository) Save(ctx context.Context, rec ports.RunRecord) error {
	query := `INSERT INTO analysis_runs (
		run_id, analysis, definition_hash, source, trial_count, group_count, summary, created_at
	) VALUES (
		:run_id, :analysis, :definition_hash, :source, :trial_count, :group_count, :summary, :created_at
	)`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to save run %s", rec.RunID), err)
	}
	return nil
}

// ListByAnalysis returns the most recent runs of one analysis, newest first.
func (r *RunRepository) ListByAnalysis(ctx context.Context, analysis string, limit int) ([]ports.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT run_id, analysis, definition_hash, source, trial_count, group_count, summary, created_at
	FROM analysis_runs WHERE analysis = $1 ORDER BY created_at DESC LIMIT $2`

	var records []ports.RunRecord
	if err := r.db.SelectContext(ctx, &records, query, analysis, limit); err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	return records, nil
}
