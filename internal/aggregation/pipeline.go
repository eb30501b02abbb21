package aggregation

import (
	"trialstats/domain/trial"
)

// Result holds every table one pipeline run derives from a trial table.
type Result struct {
	Schema  trial.Schema
	Groups  *Aggregation
	Summary *trial.Table
	Pruned  *trial.Table
}

// Run classifies the columns of table, aggregates outcome rates per room and
// configuration, rolls them up over rooms and prunes constant columns.
//
// A nil table means the loader produced nothing; Run then returns a nil
// Result and no error.
func Run(table *trial.Table, cfg Config) (*Result, error) {
	if table == nil {
		return nil, nil
	}

	schema, err := DescribeFactors(table, cfg)
	if err != nil {
		return nil, err
	}
	factors := schema.FactorNames()

	groups, err := AggregateOutcomes(table, factors, cfg)
	if err != nil {
		return nil, err
	}

	summary, err := Rollup(groups.Table, append(append([]string{}, factors...), cfg.RollupExtra...), cfg.Taxonomy)
	if err != nil {
		return nil, err
	}

	return &Result{
		Schema:  schema,
		Groups:  groups,
		Summary: summary,
		Pruned:  PruneConstantColumns(summary),
	}, nil
}
