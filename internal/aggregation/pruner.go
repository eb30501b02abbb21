package aggregation

import (
	"trialstats/domain/trial"
)

// ConstantColumns lists the columns whose present cells all share one
// category key. Missing cells are not counted, so a column holding one value
// and gaps is constant while an all-missing column is not.
func ConstantColumns(table *trial.Table) []string {
	if table == nil {
		return nil
	}
	var constant []string
	for _, c := range table.Columns() {
		if presentDistinct(table, c) == 1 {
			constant = append(constant, c)
		}
	}
	return constant
}

// PruneConstantColumns drops every column with exactly one distinct value.
// Such a column is a fixed setting of the whole run and tells nothing apart.
// Applying it twice gives the same table as applying it once.
func PruneConstantColumns(table *trial.Table) *trial.Table {
	if table == nil {
		return nil
	}
	return table.Drop(ConstantColumns(table)...)
}

func presentDistinct(t *trial.Table, column string) int {
	seen := make(map[string]struct{})
	for r := 0; r < t.Len(); r++ {
		if v := t.At(r, column); !v.IsMissing() {
			seen[v.Key()] = struct{}{}
		}
	}
	return len(seen)
}
