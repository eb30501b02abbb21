package aggregation

import (
	"testing"

	"trialstats/domain/trial"

	"github.com/stretchr/testify/require"
)

var trialColumns = []string{"measurement_id", "algorithm", "algorithm_value", "room_name", "correct", "distance", "duration"}

// knnTrials is the three-trial scenario: room A one hit one miss, room B one hit.
func knnTrials(t *testing.T) *trial.Table {
	t.Helper()
	tbl := trial.NewTable(trialColumns)
	require.NoError(t, tbl.Append(trial.Text("m1"), trial.Text("knn"), trial.Int(5), trial.Text("A"), trial.Bool(true), trial.Number(1), trial.Int(10)))
	require.NoError(t, tbl.Append(trial.Text("m2"), trial.Text("knn"), trial.Int(5), trial.Text("A"), trial.Bool(false), trial.Number(3), trial.Int(20)))
	require.NoError(t, tbl.Append(trial.Text("m3"), trial.Text("knn"), trial.Int(5), trial.Text("B"), trial.Bool(true), trial.Missing(), trial.Int(30)))
	return tbl
}

func float(t *testing.T, v trial.Value) float64 {
	t.Helper()
	f, ok := v.Float()
	require.True(t, ok, "expected a number, got %q", v.String())
	return f
}

func ternaryConfig() Config {
	cfg := DefaultConfig()
	cfg.Taxonomy = trial.TernaryTaxonomy()
	return cfg
}
