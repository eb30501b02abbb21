package aggregation

import (
	"sort"

	"trialstats/domain/core"
	"trialstats/domain/trial"

	"github.com/montanaflynn/stats"
)

// group is one distinct key tuple and the table rows that carry it.
type group struct {
	key  []trial.Value
	rows []int
}

// groupRows partitions the rows of t by the given columns. Missing cells form
// their own key value, so every row lands in exactly one group. Groups come
// back in natural key order.
func groupRows(t *trial.Table, columns []string) ([]group, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := t.Index(c)
		if !ok {
			return nil, core.NewMissingColumnError("grouping", c)
		}
		idx[i] = j
	}

	byKey := make(map[string]int)
	var groups []group
	for r := 0; r < t.Len(); r++ {
		row := t.Row(r)
		key := make([]trial.Value, len(idx))
		for i, j := range idx {
			key[i] = row[j]
		}
		k := trial.TupleKey(key)
		g, ok := byKey[k]
		if !ok {
			g = len(groups)
			byKey[k] = g
			groups = append(groups, group{key: key})
		}
		groups[g].rows = append(groups[g].rows, r)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return trial.CompareKeys(groups[a].key, groups[b].key) < 0
	})
	return groups, nil
}

// numericCells collects the numeric cells of a column over the given rows,
// skipping missing and non-numeric cells.
func numericCells(t *trial.Table, column string, rows []int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := t.At(r, column).Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// meanValue is the mean of the numeric cells, or Missing when there are none.
func meanValue(data []float64) trial.Value {
	if len(data) == 0 {
		return trial.Missing()
	}
	m, err := stats.Mean(data)
	if err != nil {
		return trial.Missing()
	}
	return trial.Number(m)
}

// distinctCount counts distinct category keys in a column over the given rows.
func distinctCount(t *trial.Table, column string, rows []int) int {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[t.At(r, column).Key()] = struct{}{}
	}
	return len(seen)
}

func allRows(t *trial.Table) []int {
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// uniqueColumns drops repeated names, keeping first occurrences.
func uniqueColumns(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
