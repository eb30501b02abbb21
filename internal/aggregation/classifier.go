package aggregation

import (
	"trialstats/domain/core"
	"trialstats/domain/trial"
)

// ClassifyColumns returns the factor columns: every column not in excluded,
// in source order. Excluded names that do not occur in columns are ignored.
func ClassifyColumns(columns, excluded []string) []string {
	skip := make(map[string]bool, len(excluded))
	for _, c := range excluded {
		skip[c] = true
	}
	factors := make([]string, 0, len(columns))
	for _, c := range columns {
		if !skip[c] {
			factors = append(factors, c)
		}
	}
	return factors
}

// DescribeFactors validates the table against cfg and derives its schema.
// The room and outcome columns are required; each factor's kind is the kind
// held by most of its non-missing cells.
func DescribeFactors(table *trial.Table, cfg Config) (trial.Schema, error) {
	if table == nil {
		return trial.Schema{}, core.ErrNoData
	}
	if !table.Has(cfg.RoomColumn) {
		return trial.Schema{}, core.NewMissingColumnError("room", cfg.RoomColumn)
	}
	if !table.Has(cfg.OutcomeColumn) {
		return trial.Schema{}, core.NewMissingColumnError("outcome", cfg.OutcomeColumn)
	}

	names := ClassifyColumns(table.Columns(), cfg.Exclusions())
	rows := allRows(table)
	factors := make([]trial.FactorDescriptor, len(names))
	for i, name := range names {
		factors[i] = trial.FactorDescriptor{
			Name:   name,
			Kind:   dominantKind(table, name),
			Levels: distinctCount(table, name, rows),
		}
	}

	return trial.Schema{
		Room:    cfg.RoomColumn,
		Outcome: cfg.OutcomeColumn,
		Factors: factors,
	}, nil
}

// dominantKind picks the most frequent non-missing kind; ties go to the
// more general kind (string over number over bool).
func dominantKind(table *trial.Table, column string) trial.Kind {
	counts := make(map[trial.Kind]int)
	values, _ := table.Column(column)
	for _, v := range values {
		if !v.IsMissing() {
			counts[v.Kind()]++
		}
	}
	best, bestCount := trial.KindMissing, 0
	for _, k := range []trial.Kind{trial.KindBool, trial.KindNumber, trial.KindString} {
		if counts[k] > 0 && counts[k] >= bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
