package trial

import (
	"encoding/json"
	"fmt"

	"trialstats/domain/core"
)

// Table is an ordered set of named columns holding rows of Values.
// Operations never modify the receiver; they return a new Table.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable creates an empty table. A repeated column name keeps its first position.
func NewTable(columns []string) *Table {
	t := &Table{
		columns: make([]string, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if _, dup := t.index[c]; dup {
			continue
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) Len() int   { return len(t.rows) }
func (t *Table) Width() int { return len(t.columns) }

// Has reports whether the table has the named column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Index returns the position of a column.
func (t *Table) Index(column string) (int, bool) {
	i, ok := t.index[column]
	return i, ok
}

// Append adds a row. The row must have one value per column.
func (t *Table) Append(values ...Value) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: got %d values for %d columns", core.ErrRowWidth, len(values), len(t.columns))
	}
	row := make([]Value, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// MustAppend is Append for rows built by the caller with a known width.
func (t *Table) MustAppend(values ...Value) {
	if err := t.Append(values...); err != nil {
		panic(err)
	}
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// At returns the cell at row i in the named column, or Missing when the column is absent.
func (t *Table) At(i int, column string) Value {
	j, ok := t.index[column]
	if !ok {
		return Missing()
	}
	return t.rows[i][j]
}

// Column returns all cells of a column.
func (t *Table) Column(column string) ([]Value, bool) {
	j, ok := t.index[column]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, true
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := NewTable(t.columns)
	out.rows = make([][]Value, len(t.rows))
	for i := range t.rows {
		out.rows[i] = t.Row(i)
	}
	return out
}

// Select projects the table onto the given columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := t.index[c]
		if !ok {
			return nil, core.NewMissingColumnError("selected", c)
		}
		idx[i] = j
	}
	out := NewTable(columns)
	out.rows = make([][]Value, len(t.rows))
	for r, row := range t.rows {
		vals := make([]Value, len(idx))
		for i, j := range idx {
			vals[i] = row[j]
		}
		out.rows[r] = vals
	}
	return out, nil
}

// Drop removes the named columns. Names that are not present are ignored.
func (t *Table) Drop(columns ...string) *Table {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	keep := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	out, _ := t.Select(keep...)
	return out
}

// Row accessor handed to filter predicates.
type Row struct {
	table  *Table
	values []Value
}

// Get returns the cell in the named column, or Missing.
func (r Row) Get(column string) Value {
	j, ok := r.table.index[column]
	if !ok {
		return Missing()
	}
	return r.values[j]
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := NewTable(t.columns)
	for i := range t.rows {
		if keep(Row{table: t, values: t.rows[i]}) {
			out.rows = append(out.rows, t.Row(i))
		}
	}
	return out
}

// Where keeps the rows whose column equals v by category key.
func (t *Table) Where(column string, v Value) (*Table, error) {
	if !t.Has(column) {
		return nil, core.NewMissingColumnError("filter", column)
	}
	return t.Filter(func(r Row) bool { return r.Get(column).Equal(v) }), nil
}

// FillMissing replaces missing cells of a column with v.
func (t *Table) FillMissing(column string, v Value) (*Table, error) {
	j, ok := t.index[column]
	if !ok {
		return nil, core.NewMissingColumnError("fill", column)
	}
	out := t.Clone()
	for _, row := range out.rows {
		if row[j].IsMissing() {
			row[j] = v
		}
	}
	return out, nil
}

// Records returns the rows as column-keyed maps.
func (t *Table) Records() []map[string]Value {
	out := make([]map[string]Value, len(t.rows))
	for i, row := range t.rows {
		rec := make(map[string]Value, len(t.columns))
		for j, c := range t.columns {
			rec[c] = row[j]
		}
		out[i] = rec
	}
	return out
}

// MarshalJSON encodes the table as {"columns": [...], "rows": [[...], ...]}.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := t.rows
	if rows == nil {
		rows = [][]Value{}
	}
	return json.Marshal(struct {
		Columns []string  `json:"columns"`
		Rows    [][]Value `json:"rows"`
	}{Columns: t.columns, Rows: rows})
}
