package aggregation

import (
	"encoding/json"
	"math"
	"testing"

	"trialstats/domain/core"
	"trialstats/domain/trial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pivotSource(t *testing.T, triples [][3]float64) *trial.Table {
	t.Helper()
	tbl := trial.NewTable([]string{"algorithm_value", "router_rssi_threshold", trial.RateCorrect})
	for _, tr := range triples {
		require.NoError(t, tbl.Append(trial.Number(tr[0]), trial.Number(tr[1]), trial.Number(tr[2])))
	}
	return tbl
}

var rssiSpec = PivotSpec{Row: "algorithm_value", Column: "router_rssi_threshold", Value: trial.RateCorrect}

func TestBuildPivot_RoundTrip(t *testing.T) {
	triples := [][3]float64{{7, -90, 60}, {7, -80, 80}, {5, -90, 50}, {5, -80, 70}}
	m, err := BuildPivot(pivotSource(t, triples), rssiSpec)
	require.NoError(t, err)

	var got [][3]float64
	for _, c := range m.Cells() {
		r, _ := c.Row.Float()
		col, _ := c.Column.Float()
		got = append(got, [3]float64{r, col, c.Value})
	}
	assert.ElementsMatch(t, triples, got)
}

func TestBuildPivot_DefaultOrdering(t *testing.T) {
	m, err := BuildPivot(pivotSource(t, [][3]float64{{5, -80, 70}, {7, -90, 60}, {5, -90, 50}, {9, -70, 10}}), rssiSpec)
	require.NoError(t, err)

	assert.Equal(t, []string{"9", "7", "5"}, labels(m.Rows()))
	assert.Equal(t, []string{"-90", "-80", "-70"}, labels(m.Columns()))

	_, ok := m.At(trial.Int(9), trial.Int(-90))
	assert.False(t, ok, "absent pair must stay empty")
	assert.True(t, math.IsNaN(m.AtIndex(0, 0)))
}

func TestBuildPivot_DuplicatePairsAreAveraged(t *testing.T) {
	m, err := BuildPivot(pivotSource(t, [][3]float64{{7, -80, 80}, {7, -80, 100}}), rssiSpec)
	require.NoError(t, err)

	v, ok := m.At(trial.Int(7), trial.Int(-80))
	require.True(t, ok)
	assert.Equal(t, 90.0, v)
}

func TestBuildPivot_ExplicitOrder(t *testing.T) {
	spec := rssiSpec
	spec.ColumnOrder = AxisOrder{Direction: Explicit, Categories: []trial.Value{trial.Int(-80)}}
	spec.RowOrder = AxisOrder{Direction: Ascending}

	m, err := BuildPivot(pivotSource(t, [][3]float64{{5, -90, 1}, {5, -100, 2}, {7, -80, 3}}), spec)
	require.NoError(t, err)

	assert.Equal(t, []string{"5", "7"}, labels(m.Rows()))
	assert.Equal(t, []string{"-80", "-100", "-90"}, labels(m.Columns()))
}

func TestBuildPivot_Errors(t *testing.T) {
	src := pivotSource(t, [][3]float64{{5, -90, 50}})

	_, err := BuildPivot(src, PivotSpec{Row: "algorithm_value", Column: "router_rssi_threshold", Value: "distance"})
	assert.True(t, core.IsMissingColumnError(err))

	_, err = BuildPivot(src, PivotSpec{Row: "interpolated", Column: "router_rssi_threshold", Value: trial.RateCorrect})
	assert.True(t, core.IsMissingColumnError(err))

	_, err = BuildPivot(nil, rssiSpec)
	assert.ErrorIs(t, err, core.ErrNoData)
}

func TestSumPivots_JoinsOnKeys(t *testing.T) {
	a, err := BuildPivot(pivotSource(t, [][3]float64{{5, -90, 50}, {5, -80, 70}, {7, -90, 60}, {7, -80, 80}}), rssiSpec)
	require.NoError(t, err)
	b, err := BuildPivot(pivotSource(t, [][3]float64{{5, -90, 10}, {5, -70, 5}}), rssiSpec)
	require.NoError(t, err)

	sum, err := SumPivots(a, b)
	require.NoError(t, err)

	assert.Equal(t, []string{"7", "5"}, labels(sum.Rows()))
	assert.Equal(t, []string{"-90", "-80", "-70"}, labels(sum.Columns()))

	v, ok := sum.At(trial.Int(5), trial.Int(-90))
	require.True(t, ok)
	assert.Equal(t, 60.0, v)

	_, ok = sum.At(trial.Int(5), trial.Int(-80))
	assert.False(t, ok, "present in one operand only")
	_, ok = sum.At(trial.Int(7), trial.Int(-70))
	assert.False(t, ok)
}

func TestSumPivots_AxesMustMatch(t *testing.T) {
	a, err := BuildPivot(pivotSource(t, [][3]float64{{5, -90, 50}}), rssiSpec)
	require.NoError(t, err)
	b, err := BuildPivot(pivotSource(t, [][3]float64{{5, -90, 50}}), PivotSpec{Row: "router_rssi_threshold", Column: "algorithm_value", Value: trial.RateCorrect})
	require.NoError(t, err)

	_, err = SumPivots(a, b)
	assert.Error(t, err)
}

func TestMatrix_ToTableAndJSON(t *testing.T) {
	m, err := BuildPivot(pivotSource(t, [][3]float64{{5, -90, 50}, {7, -80, 80}}), rssiSpec)
	require.NoError(t, err)

	tbl := m.ToTable()
	assert.Equal(t, []string{`algorithm_value\router_rssi_threshold`, "-90", "-80"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "7", tbl.At(0, `algorithm_value\router_rssi_threshold`).String())
	assert.True(t, tbl.At(0, "-90").IsMissing())
	assert.Equal(t, 80.0, float(t, tbl.At(0, "-80")))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"row_field": "algorithm_value",
		"column_field": "router_rssi_threshold",
		"value_field": "correct_percent",
		"rows": [7, 5],
		"columns": [-90, -80],
		"cells": [[null, 80], [50, null]]
	}`, string(data))
}

func TestBuildPivot_SkipsMissingKeys(t *testing.T) {
	tbl := trial.NewTable([]string{"algorithm_value", "router_rssi_threshold", trial.RateCorrect})
	tbl.MustAppend(trial.Int(5), trial.Int(-90), trial.Int(50))
	tbl.MustAppend(trial.Missing(), trial.Int(-90), trial.Int(100))
	tbl.MustAppend(trial.Int(5), trial.Missing(), trial.Int(0))

	m, err := BuildPivot(tbl, rssiSpec)
	require.NoError(t, err)

	assert.Equal(t, []string{"5"}, labels(m.Rows()))
	assert.Equal(t, []string{"-90"}, labels(m.Columns()))
	v, ok := m.At(trial.Int(5), trial.Int(-90))
	require.True(t, ok)
	assert.Equal(t, 50.0, v)
}

func TestMatrix_EmptyJSON(t *testing.T) {
	tbl := trial.NewTable([]string{"algorithm_value", "router_rssi_threshold", trial.RateCorrect})
	tbl.MustAppend(trial.Missing(), trial.Int(-90), trial.Int(50))

	m, err := BuildPivot(tbl, rssiSpec)
	require.NoError(t, err)
	rows, cols := m.Dims()
	assert.Zero(t, rows)
	assert.Zero(t, cols)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"row_field": "algorithm_value",
		"column_field": "router_rssi_threshold",
		"value_field": "correct_percent",
		"rows": [],
		"columns": [],
		"cells": []
	}`, string(data))
}

func TestMatrix_ToTableKeepsRowsWhenLabelsCollide(t *testing.T) {
	tbl := trial.NewTable([]string{"algorithm_value", "router_rssi_threshold", trial.RateCorrect})
	tbl.MustAppend(trial.Int(7), trial.Int(5), trial.Int(40))
	tbl.MustAppend(trial.Int(7), trial.Text("5"), trial.Int(60))

	m, err := BuildPivot(tbl, rssiSpec)
	require.NoError(t, err)

	out := m.ToTable()
	assert.Equal(t, []string{`algorithm_value\router_rssi_threshold`, "5", "5 (string)"}, out.Columns())
	require.Equal(t, 1, out.Len())
	assert.Equal(t, 40.0, float(t, out.At(0, "5")))
	assert.Equal(t, 60.0, float(t, out.At(0, "5 (string)")))
}

func labels(values []trial.Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
