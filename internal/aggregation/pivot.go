package aggregation

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"trialstats/domain/core"
	"trialstats/domain/trial"

	"gonum.org/v1/gonum/mat"
)

// Direction selects how a pivot axis is sorted.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
	// Explicit puts the listed categories first, in the listed order, and
	// appends any other category in ascending order.
	Explicit Direction = "explicit"
)

// AxisOrder is the ordering rule of one pivot axis.
type AxisOrder struct {
	Direction  Direction
	Categories []trial.Value
}

// PivotSpec describes a pivot. Empty orders default to rows descending and
// columns ascending.
type PivotSpec struct {
	Row         string
	Column      string
	Value       string
	RowOrder    AxisOrder
	ColumnOrder AxisOrder
}

// Matrix is a two-factor table of a single metric. Absent cells are NaN.
type Matrix struct {
	RowField    string
	ColumnField string
	ValueField  string

	rows     []trial.Value
	cols     []trial.Value
	rowOrder AxisOrder
	colOrder AxisOrder
	cells    *mat.Dense
}

// Cell is one populated matrix entry.
type Cell struct {
	Row    trial.Value
	Column trial.Value
	Value  float64
}

// BuildPivot reshapes table into a Matrix indexed by spec.Row and spec.Column.
// A cell holds the mean of spec.Value over the rows that carry its pair of
// keys; missing values are skipped and cells without data are NaN. Rows with a
// missing row or column key are left out of the matrix.
func BuildPivot(table *trial.Table, spec PivotSpec) (*Matrix, error) {
	if table == nil {
		return nil, core.ErrNoData
	}
	if !table.Has(spec.Value) {
		return nil, core.NewMissingColumnError("value", spec.Value)
	}
	rowOrder := withDefault(spec.RowOrder, Descending)
	colOrder := withDefault(spec.ColumnOrder, Ascending)

	grouped, err := groupRows(table, []string{spec.Row, spec.Column})
	if err != nil {
		return nil, err
	}
	buckets := grouped[:0]
	for _, b := range grouped {
		if !b.key[0].IsMissing() && !b.key[1].IsMissing() {
			buckets = append(buckets, b)
		}
	}

	rowKeys, colKeys := []trial.Value{}, []trial.Value{}
	seenRow, seenCol := make(map[string]bool), make(map[string]bool)
	for _, b := range buckets {
		if k := b.key[0].Key(); !seenRow[k] {
			seenRow[k] = true
			rowKeys = append(rowKeys, b.key[0])
		}
		if k := b.key[1].Key(); !seenCol[k] {
			seenCol[k] = true
			colKeys = append(colKeys, b.key[1])
		}
	}
	sortAxis(rowKeys, rowOrder)
	sortAxis(colKeys, colOrder)

	m := newMatrix(spec.Row, spec.Column, spec.Value, rowKeys, colKeys, rowOrder, colOrder)
	rowPos, colPos := positions(rowKeys), positions(colKeys)
	for _, b := range buckets {
		data, err := numericColumn(table, spec.Value, b.rows)
		if err != nil {
			return nil, err
		}
		if v, ok := meanValue(data).Float(); ok {
			m.cells.Set(rowPos[b.key[0].Key()], colPos[b.key[1].Key()], v)
		}
	}
	return m, nil
}

// SumPivots adds two matrices cell by cell, joining them on (row key, column
// key) rather than on position. The result spans the union of both axes,
// ordered by a's rules; a cell present in only one operand is NaN.
func SumPivots(a, b *Matrix) (*Matrix, error) {
	if a == nil || b == nil {
		return nil, core.ErrNoData
	}
	if a.RowField != b.RowField || a.ColumnField != b.ColumnField {
		return nil, fmt.Errorf("pivot axes differ: %s x %s vs %s x %s", a.RowField, a.ColumnField, b.RowField, b.ColumnField)
	}

	rowKeys := unionKeys(a.rows, b.rows)
	colKeys := unionKeys(a.cols, b.cols)
	sortAxis(rowKeys, a.rowOrder)
	sortAxis(colKeys, a.colOrder)

	out := newMatrix(a.RowField, a.ColumnField, a.ValueField+"+"+b.ValueField, rowKeys, colKeys, a.rowOrder, a.colOrder)
	if out.cells == nil {
		return out, nil
	}
	left, right := a.alignTo(rowKeys, colKeys), b.alignTo(rowKeys, colKeys)
	out.cells.Add(left, right)
	return out, nil
}

// Rows returns the row index in display order.
func (m *Matrix) Rows() []trial.Value { return append([]trial.Value{}, m.rows...) }

// Columns returns the column index in display order.
func (m *Matrix) Columns() []trial.Value { return append([]trial.Value{}, m.cols...) }

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (int, int) { return len(m.rows), len(m.cols) }

// AtIndex returns the cell at display position (i, j).
func (m *Matrix) AtIndex(i, j int) float64 { return m.cells.At(i, j) }

// At looks a cell up by its keys. ok is false when either key is unknown or
// the cell has no data.
func (m *Matrix) At(row, col trial.Value) (float64, bool) {
	i, j := indexOf(m.rows, row), indexOf(m.cols, col)
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	v := m.cells.At(i, j)
	return v, !math.IsNaN(v)
}

// Cells flattens the populated cells row by row.
func (m *Matrix) Cells() []Cell {
	var out []Cell
	for i, r := range m.rows {
		for j, c := range m.cols {
			if v := m.cells.At(i, j); !math.IsNaN(v) {
				out = append(out, Cell{Row: r, Column: c, Value: v})
			}
		}
	}
	return out
}

// ToTable renders the matrix as a table: the first column holds the row keys,
// every further column is one column key. Column keys that print alike, such
// as the number 5 and the string "5", get their kind appended to the header.
func (m *Matrix) ToTable() *trial.Table {
	corner := m.RowField + `\` + m.ColumnField
	columns := []string{corner}
	taken := map[string]bool{corner: true}
	for _, c := range m.cols {
		label := axisLabel(c)
		if taken[label] {
			label = fmt.Sprintf("%s (%s)", label, c.Kind())
		}
		for n := 2; taken[label]; n++ {
			label = fmt.Sprintf("%s (%s %d)", axisLabel(c), c.Kind(), n)
		}
		taken[label] = true
		columns = append(columns, label)
	}
	t := trial.NewTable(columns)
	for i, r := range m.rows {
		row := []trial.Value{r}
		for j := range m.cols {
			row = append(row, trial.Number(m.cells.At(i, j)))
		}
		t.MustAppend(row...)
	}
	return t
}

// MarshalJSON encodes the axes and a row-major cell grid with null for NaN.
// An empty matrix encodes empty arrays, never null.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	rows, cols := m.Rows(), m.Columns()
	grid := make([][]*float64, len(m.rows))
	for i := range m.rows {
		grid[i] = make([]*float64, len(m.cols))
		for j := range m.cols {
			if v := m.cells.At(i, j); !math.IsNaN(v) {
				grid[i][j] = &v
			}
		}
	}
	return json.Marshal(struct {
		RowField    string        `json:"row_field"`
		ColumnField string        `json:"column_field"`
		ValueField  string        `json:"value_field"`
		Rows        []trial.Value `json:"rows"`
		Columns     []trial.Value `json:"columns"`
		Cells       [][]*float64  `json:"cells"`
	}{m.RowField, m.ColumnField, m.ValueField, rows, cols, grid})
}

func newMatrix(rowField, colField, valueField string, rows, cols []trial.Value, rowOrder, colOrder AxisOrder) *Matrix {
	m := &Matrix{
		RowField:    rowField,
		ColumnField: colField,
		ValueField:  valueField,
		rows:        rows,
		cols:        cols,
		rowOrder:    rowOrder,
		colOrder:    colOrder,
	}
	if len(rows) > 0 && len(cols) > 0 {
		data := make([]float64, len(rows)*len(cols))
		for i := range data {
			data[i] = math.NaN()
		}
		m.cells = mat.NewDense(len(rows), len(cols), data)
	}
	return m
}

// alignTo copies m onto the given axes, filling unknown cells with NaN.
func (m *Matrix) alignTo(rows, cols []trial.Value) *mat.Dense {
	data := make([]float64, len(rows)*len(cols))
	for i, r := range rows {
		for j, c := range cols {
			v, _ := m.At(r, c)
			data[i*len(cols)+j] = v
		}
	}
	return mat.NewDense(len(rows), len(cols), data)
}

func withDefault(o AxisOrder, d Direction) AxisOrder {
	if o.Direction == "" {
		o.Direction = d
	}
	return o
}

func sortAxis(keys []trial.Value, order AxisOrder) {
	switch order.Direction {
	case Descending:
		sort.SliceStable(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) > 0 })
	case Explicit:
		rank := make(map[string]int, len(order.Categories))
		for i, c := range order.Categories {
			if _, dup := rank[c.Key()]; !dup {
				rank[c.Key()] = i
			}
		}
		sort.SliceStable(keys, func(i, j int) bool {
			ri, iok := rank[keys[i].Key()]
			rj, jok := rank[keys[j].Key()]
			switch {
			case iok && jok:
				return ri < rj
			case iok != jok:
				return iok
			default:
				return keys[i].Compare(keys[j]) < 0
			}
		})
	default:
		sort.SliceStable(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	}
}

func positions(keys []trial.Value) map[string]int {
	pos := make(map[string]int, len(keys))
	for i, k := range keys {
		pos[k.Key()] = i
	}
	return pos
}

func indexOf(keys []trial.Value, v trial.Value) int {
	for i, k := range keys {
		if k.Equal(v) {
			return i
		}
	}
	return -1
}

func unionKeys(a, b []trial.Value) []trial.Value {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]trial.Value, 0, len(a)+len(b))
	for _, list := range [][]trial.Value{a, b} {
		for _, v := range list {
			if !seen[v.Key()] {
				seen[v.Key()] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func axisLabel(v trial.Value) string {
	if v.IsMissing() {
		return "<missing>"
	}
	return v.String()
}
