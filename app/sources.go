package app

import (
	"context"
	"fmt"

	"trialstats/adapters/excel"
	"trialstats/adapters/postgres"
	"trialstats/domain/trial"
	"trialstats/internal/errors"
	"trialstats/ports"

	"github.com/jmoiron/sqlx"
)

// SourceResolver maps analysis inputs onto file readers or the database
type SourceResolver struct {
	defaultInput string
	db           *sqlx.DB
	defaultQuery string
}

// NewSourceResolver creates a resolver. db may be nil when no database is
// configured; analyses that name a query then fail to resolve.
func NewSourceResolver(defaultInput string, db *sqlx.DB, defaultQuery string) *SourceResolver {
	return &SourceResolver{defaultInput: defaultInput, db: db, defaultQuery: defaultQuery}
}

// Resolve returns the loader for one analysis input
func (r *SourceResolver) Resolve(input, query string) (ports.TableLoader, error) {
	if query != "" {
		if r.db == nil {
			return nil, errors.ConfigInvalid("analysis reads from a query but DATABASE_URL is not set")
		}
		return postgres.NewTrialRepository(r.db, query), nil
	}
	if input == "" {
		input = r.defaultInput
	}
	if input == "" {
		if r.db != nil {
			return postgres.NewTrialRepository(r.db, r.defaultQuery), nil
		}
		return nil, errors.InvalidInput("no input file: set INPUT_FILE or the analysis input")
	}
	return excel.NewDataReader(input), nil
}

// StaticLoader serves a table that is already in memory, such as an upload
type StaticLoader struct {
	name  string
	table *trial.Table
	err   error
}

// NewStaticLoader wraps a parsed table. A non-nil err is returned by Load
// instead of the table.
func NewStaticLoader(name string, table *trial.Table, err error) *StaticLoader {
	return &StaticLoader{name: name, table: table, err: err}
}

func (l *StaticLoader) Source() string { return l.name }

func (l *StaticLoader) Load(ctx context.Context) (*trial.Table, error) {
	if l.err != nil {
		return nil, errors.LoadFailed(l.name, l.err)
	}
	if l.table == nil {
		return nil, errors.LoadFailed(l.name, fmt.Errorf("no table"))
	}
	return l.table.Clone(), nil
}
