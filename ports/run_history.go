package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trialstats/domain/core"
)

// RunRecord is one persisted analysis run.
type RunRecord struct {
	RunID          core.RunID `db:"run_id" json:"run_id"`
	Analysis       string     `db:"analysis" json:"analysis"`
	DefinitionHash core.Hash  `db:"definition_hash" json:"definition_hash"`
	Source         string     `db:"source" json:"source"`
	TrialCount     int        `db:"trial_count" json:"trial_count"`
	GroupCount     int        `db:"group_count" json:"group_count"`
	Summary        []byte     `db:"summary" json:"summary"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// NewRunRecord builds a record with summary encoded as JSON.
func NewRunRecord(runID core.RunID, analysis string, hash core.Hash, source string, trials, groups int, summary interface{}, at time.Time) (RunRecord, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to marshal summary: %w", err)
	}
	return RunRecord{
		RunID:          runID,
		Analysis:       analysis,
		DefinitionHash: hash,
		Source:         source,
		TrialCount:     trials,
		GroupCount:     groups,
		Summary:        data,
		CreatedAt:      at.UTC(),
	}, nil
}

// RunHistory stores and lists analysis runs
type RunHistory interface {
	Save(ctx context.Context, rec RunRecord) error
	ListByAnalysis(ctx context.Context, analysis string, limit int) ([]RunRecord, error)
}
