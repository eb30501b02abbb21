package ports

import (
	"context"

	"trialstats/domain/trial"
)

// TableLoader produces one trial table from some source
type TableLoader interface {
	// Source names where the table comes from, for logs and reports.
	Source() string
	Load(ctx context.Context) (*trial.Table, error)
}

// LoaderResolver picks the loader for an analysis: a file path, or a SQL
// query when query is set.
type LoaderResolver interface {
	Resolve(input, query string) (TableLoader, error)
}
