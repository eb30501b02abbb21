package postgres

import (
	"context"
	"fmt"
	"log"
	"strings"

	"trialstats/adapters/datareadiness/coercer"
	"trialstats/domain/trial"
	"trialstats/internal/errors"

	"github.com/jmoiron/sqlx"
)

// DefaultTrialQuery reads the flat trial view the evaluation jobs populate.
const DefaultTrialQuery = `SELECT * FROM localization_trials`

// TrialRepository loads a trial table from PostgreSQL
type TrialRepository struct {
	db      *sqlx.DB
	query   string
	coercer *coercer.TypeCoercer
}

// NewTrialRepository creates a repository running query; an empty query
// selects DefaultTrialQuery.
func NewTrialRepository(db *sqlx.DB, query string) *TrialRepository {
	if strings.TrimSpace(query) == "" {
		query = DefaultTrialQuery
	}
	return &TrialRepository{
		db:      db,
		query:   query,
		coercer: coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()),
	}
}

// Source describes where the table comes from.
func (r *TrialRepository) Source() string { return "postgres: " + r.query }

// Load runs the query and returns its result set in column order.
func (r *TrialRepository) Load(ctx context.Context) (*trial.Table, error) {
	rows, err := r.db.QueryxContext(ctx, r.query)
	if err != nil {
		return nil, errors.LoadFailed(r.Source(), errors.DatabaseError("failed to query trials", err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.LoadFailed(r.Source(), errors.DatabaseError("failed to read columns", err))
	}

	var records [][]interface{}
	for rows.Next() {
		record, err := rows.SliceScan()
		if err != nil {
			return nil, errors.LoadFailed(r.Source(), errors.DatabaseError("failed to scan trial row", err))
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.LoadFailed(r.Source(), errors.DatabaseError("failed to iterate trials", err))
	}

	table, err := r.toTable(columns, records)
	if err != nil {
		return nil, errors.LoadFailed(r.Source(), err)
	}
	log.Printf("[TrialRepository] Loaded %d trials (%d columns)", table.Len(), table.Width())
	return table, nil
}

// toTable types driver values one cell at a time; the driver already knows
// each column's type.
func (r *TrialRepository) toTable(columns []string, records [][]interface{}) (*trial.Table, error) {
	table := trial.NewTable(columns)
	if table.Width() != len(columns) {
		return nil, fmt.Errorf("query returns duplicate column names: %v", columns)
	}
	for i, record := range records {
		values := make([]trial.Value, len(record))
		for j, cell := range record {
			values[j] = r.coercer.CoerceValue(cell)
		}
		if err := table.Append(values...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return table, nil
}
