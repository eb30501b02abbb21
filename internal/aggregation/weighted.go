package aggregation

import (
	"fmt"

	"trialstats/domain/core"
	"trialstats/domain/trial"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WeightedSummary computes, for every distinct value of groupColumn, the plain
// mean of rateColumn and the weighted mean sum(rate*weight)/sum(weight). The
// result has the columns groupColumn, rateColumn, weighted_<rateColumn> and
// weightColumn (total weight of the group).
func WeightedSummary(table *trial.Table, groupColumn, rateColumn, weightColumn string) (*trial.Table, error) {
	if table == nil {
		return nil, core.ErrNoData
	}
	if !table.Has(rateColumn) {
		return nil, core.NewMissingColumnError("rate", rateColumn)
	}
	if !table.Has(weightColumn) {
		return nil, core.NewMissingColumnError("weight", weightColumn)
	}
	if groupColumn == rateColumn || groupColumn == weightColumn || rateColumn == weightColumn {
		return nil, fmt.Errorf("group, rate and weight columns must differ: %q, %q, %q", groupColumn, rateColumn, weightColumn)
	}

	buckets, err := groupRows(table, []string{groupColumn})
	if err != nil {
		return nil, err
	}

	out := trial.NewTable([]string{groupColumn, rateColumn, WeightedPrefix + rateColumn, weightColumn})
	for _, b := range buckets {
		rates := make([]float64, len(b.rows))
		weights := make([]float64, len(b.rows))
		for i, r := range b.rows {
			rate, ok := table.At(r, rateColumn).Float()
			if !ok {
				return nil, core.NewNonNumericError(rateColumn, r, table.At(r, rateColumn).Raw())
			}
			w, ok := table.At(r, weightColumn).Float()
			if !ok || w < 0 {
				return nil, fmt.Errorf("%w: column %q row %d value %q", core.ErrInvalidWeight, weightColumn, r, table.At(r, weightColumn).Raw())
			}
			rates[i], weights[i] = rate, w
		}

		total := floats.Sum(weights)
		if total == 0 {
			return nil, fmt.Errorf("%w: total weight of %s=%s is zero", core.ErrInvalidWeight, groupColumn, b.key[0])
		}

		if err := out.Append(
			b.key[0],
			trial.Number(stat.Mean(rates, nil)),
			trial.Number(stat.Mean(rates, weights)),
			trial.Number(total),
		); err != nil {
			return nil, err
		}
	}
	return out, nil
}
