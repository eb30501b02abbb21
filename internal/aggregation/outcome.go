package aggregation

import (
	"trialstats/domain/core"
	"trialstats/domain/trial"
)

// Aggregation is the per-(room, configuration) rate table.
type Aggregation struct {
	Table *trial.Table
	// TrialCounts holds the group size of each row of Table.
	TrialCounts []int
	// Unmatched counts ternary labels that fell into no category.
	Unmatched int
}

// AggregateOutcomes groups trials by [room] + factors and computes, per group,
// the percentage of each reported outcome category, the trial count, the
// number of distinct measurements and the mean distance and duration.
//
// The room and outcome columns and every factor are required. The
// measurement, distance and duration columns are carried only when present.
func AggregateOutcomes(table *trial.Table, factors []string, cfg Config) (*Aggregation, error) {
	if table == nil {
		return nil, core.ErrNoData
	}
	if !table.Has(cfg.RoomColumn) {
		return nil, core.NewMissingColumnError("room", cfg.RoomColumn)
	}
	if !table.Has(cfg.OutcomeColumn) {
		return nil, core.NewMissingColumnError("outcome", cfg.OutcomeColumn)
	}

	keyColumns := uniqueColumns(append([]string{cfg.RoomColumn}, factors...))
	groups, err := groupRows(table, keyColumns)
	if err != nil {
		return nil, err
	}

	rateColumns := cfg.Taxonomy.RateColumns()
	hasMeasurement := cfg.MeasurementColumn != "" && table.Has(cfg.MeasurementColumn)
	hasDistance := cfg.DistanceColumn != "" && table.Has(cfg.DistanceColumn)
	hasDuration := cfg.DurationColumn != "" && table.Has(cfg.DurationColumn)

	columns := append(append([]string{}, keyColumns...), rateColumns...)
	if hasMeasurement {
		columns = append(columns, ColumnMeasurementCount)
	}
	if hasDistance {
		columns = append(columns, cfg.DistanceColumn)
	}
	if hasDuration {
		columns = append(columns, cfg.DurationColumn)
	}
	columns = append(columns, ColumnRoomCount)

	out := &Aggregation{
		Table:       trial.NewTable(columns),
		TrialCounts: make([]int, 0, len(groups)),
	}
	for _, g := range groups {
		counts := make(map[trial.Outcome]int)
		for _, r := range g.rows {
			outcome, err := cfg.Taxonomy.Classify(table.At(r, cfg.OutcomeColumn))
			if err != nil {
				return nil, core.NewInvalidOutcomeError(cfg.OutcomeColumn, r, table.At(r, cfg.OutcomeColumn).Raw())
			}
			switch outcome {
			case trial.OutcomeCorrect, trial.OutcomeIncorrect,
				trial.OutcomeTrue, trial.OutcomeFalse, trial.OutcomeNotFalse:
				counts[outcome]++
			case trial.OutcomeUnmatched:
				out.Unmatched++
			}
		}

		size := len(g.rows)
		row := append([]trial.Value{}, g.key...)
		for _, c := range cfg.Taxonomy.Categories {
			if c.RateColumn != "" {
				row = append(row, trial.Number(percent(counts[c.Outcome], size)))
			}
		}
		if hasMeasurement {
			row = append(row, trial.Int(distinctCount(table, cfg.MeasurementColumn, g.rows)))
		}
		if hasDistance {
			row = append(row, meanValue(numericCells(table, cfg.DistanceColumn, g.rows)))
		}
		if hasDuration {
			row = append(row, meanValue(numericCells(table, cfg.DurationColumn, g.rows)))
		}
		row = append(row, trial.Int(size))

		if err := out.Table.Append(row...); err != nil {
			return nil, err
		}
		out.TrialCounts = append(out.TrialCounts, size)
	}
	return out, nil
}

func percent(count, size int) float64 {
	return 100 * float64(count) / float64(size)
}
