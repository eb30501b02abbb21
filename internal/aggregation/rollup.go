package aggregation

import (
	"trialstats/domain/core"
	"trialstats/domain/trial"
)

// Rollup re-groups a per-room rate table by groupColumns alone and averages
// each rate column over the rows of a group. Every room weighs the same no
// matter how many trials it had; use WeightedSummary for trial weighting.
func Rollup(groups *trial.Table, groupColumns []string, taxonomy trial.Taxonomy) (*trial.Table, error) {
	if groups == nil {
		return nil, core.ErrNoData
	}
	rateColumns := taxonomy.RateColumns()
	for _, c := range rateColumns {
		if !groups.Has(c) {
			return nil, core.NewMissingColumnError("rate", c)
		}
	}

	groupColumns = uniqueColumns(groupColumns)
	buckets, err := groupRows(groups, groupColumns)
	if err != nil {
		return nil, err
	}

	out := trial.NewTable(append(append([]string{}, groupColumns...), rateColumns...))
	for _, b := range buckets {
		row := append([]trial.Value{}, b.key...)
		for _, c := range rateColumns {
			data, err := numericColumn(groups, c, b.rows)
			if err != nil {
				return nil, err
			}
			row = append(row, meanValue(data))
		}
		if err := out.Append(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// numericColumn is numericCells that rejects non-numeric, non-missing cells.
func numericColumn(t *trial.Table, column string, rows []int) ([]float64, error) {
	data := make([]float64, 0, len(rows))
	for _, r := range rows {
		v := t.At(r, column)
		if v.IsMissing() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return nil, core.NewNonNumericError(column, r, v.Raw())
		}
		data = append(data, f)
	}
	return data, nil
}
