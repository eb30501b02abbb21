package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"trialstats/domain/trial"
	"trialstats/internal"
	"trialstats/internal/config"
	"trialstats/internal/errors"
	"trialstats/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssiTrials() *trial.Table {
	tbl := trial.NewTable([]string{"measurement_id", "room_name", "algorithm", "algorithm_value", "router_rssi_threshold", "correct"})
	add := func(id, room, algorithm string, k trial.Value, rssi int, correct bool) {
		tbl.MustAppend(trial.Text(id), trial.Text(room), trial.Text(algorithm), k, trial.Int(rssi), trial.Bool(correct))
	}
	add("m1", "A", "knn", trial.Int(5), -90, true)
	add("m2", "A", "knn", trial.Int(5), -90, false)
	add("m3", "B", "knn", trial.Int(5), -90, true)
	add("m4", "A", "knn", trial.Int(5), -80, true)
	add("m5", "B", "knn", trial.Int(5), -80, true)
	add("m6", "A", "svm", trial.Missing(), -90, false)
	add("m7", "B", "svm", trial.Missing(), -90, true)
	return tbl
}

type fakeResolver map[string]ports.TableLoader

func (r fakeResolver) Resolve(input, query string) (ports.TableLoader, error) {
	if l, ok := r[input]; ok {
		return l, nil
	}
	return nil, errors.InvalidInput(fmt.Sprintf("unknown input %q", input))
}

type memoryHistory struct {
	mu      sync.Mutex
	records []ports.RunRecord
}

func (h *memoryHistory) Save(_ context.Context, rec ports.RunRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

func (h *memoryHistory) ListByAnalysis(_ context.Context, analysis string, _ int) ([]ports.RunRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []ports.RunRecord
	for _, r := range h.records {
		if r.Analysis == analysis {
			out = append(out, r)
		}
	}
	return out, nil
}

func newService(history ports.RunHistory) *AnalysisService {
	resolver := fakeResolver{"trials.csv": NewStaticLoader("trials.csv", rssiTrials(), nil)}
	return NewAnalysisService(resolver, history, 2, internal.NewLogger(internal.LogLevelError))
}

func number(t *testing.T, v trial.Value) float64 {
	t.Helper()
	f, ok := v.Float()
	require.True(t, ok, "expected a number, got %q", v.String())
	return f
}

func TestAnalysisService_DefaultAnalysis(t *testing.T) {
	history := &memoryHistory{}
	report, err := newService(history).Run(context.Background(), config.DefaultAnalysis("trials.csv"))
	require.NoError(t, err)

	assert.True(t, report.Loaded)
	assert.Equal(t, 7, report.TrialCount)
	assert.Equal(t, []string{"algorithm", "algorithm_value", "router_rssi_threshold"}, report.Schema.FactorNames())
	assert.Equal(t, 6, report.Groups.Len())

	require.Equal(t, 3, report.Summary.Len())
	assert.Equal(t, 75.0, number(t, report.Summary.At(0, trial.RateCorrect)))
	assert.Equal(t, 100.0, number(t, report.Summary.At(1, trial.RateCorrect)))
	assert.Equal(t, 50.0, number(t, report.Summary.At(2, trial.RateCorrect)))
	assert.Equal(t, []string{"algorithm", "algorithm_value", "router_rssi_threshold", trial.RateCorrect}, report.Summary.Columns())
	assert.Equal(t, []string{"algorithm", "router_rssi_threshold", trial.RateCorrect}, report.Pruned.Columns(),
		"algorithm_value holds 5 and gaps only")

	require.Len(t, history.records, 1)
	assert.Equal(t, report.RunID, history.records[0].RunID)
	assert.Equal(t, 6, history.records[0].GroupCount)
}

func TestAnalysisService_FullDefinition(t *testing.T) {
	a := config.Analysis{
		Name:                "knn_rssi",
		Input:               "trials.csv",
		Filters:             []config.Filter{{Column: "algorithm", Equals: "knn"}},
		Weighted:            &config.WeightedDef{Group: "router_rssi_threshold"},
		MeasurementsPerRoom: true,
		Pivots: []config.PivotDef{
			{Name: "k_by_rssi", Row: "algorithm_value", Column: "router_rssi_threshold", Values: []string{trial.RateCorrect}},
			{Name: "doubled", Row: "algorithm_value", Column: "router_rssi_threshold", Values: []string{trial.RateCorrect, trial.RateCorrect}},
		},
	}

	report, err := newService(nil).Run(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, 5, report.TrialCount)
	assert.Equal(t, []string{"router_rssi_threshold", trial.RateCorrect}, report.Pruned.Columns())

	require.Equal(t, 2, report.Weighted.Len())
	assert.Equal(t, "-90", report.Weighted.At(0, "router_rssi_threshold").String())
	assert.Equal(t, 75.0, number(t, report.Weighted.At(0, trial.RateCorrect)))
	assert.InDelta(t, 66.67, number(t, report.Weighted.At(0, "weighted_correct_percent")), 0.01)
	assert.Equal(t, 100.0, number(t, report.Weighted.At(1, "weighted_correct_percent")))

	require.Equal(t, 2, report.Measurements.Len())
	assert.Equal(t, 3.0, number(t, report.Measurements.At(0, "num_measurements")))
	assert.Equal(t, 2.0, number(t, report.Measurements.At(1, "num_measurements")))

	require.Len(t, report.Pivots, 2)
	v, ok := report.Pivots[0].Matrix.At(trial.Int(5), trial.Int(-90))
	require.True(t, ok)
	assert.Equal(t, 75.0, v)
	v, ok = report.Pivots[1].Matrix.At(trial.Int(5), trial.Int(-80))
	require.True(t, ok)
	assert.Equal(t, 200.0, v)

	names := make([]string, 0)
	for _, nt := range report.Tables() {
		names = append(names, nt.Name)
	}
	assert.Equal(t, []string{"summary", "pruned", "groups", "weighted", "measurements", "k_by_rssi", "doubled"}, names)
}

func TestAnalysisService_FillMissingAndDrop(t *testing.T) {
	a := config.Analysis{
		Name:        "filled",
		Input:       "trials.csv",
		FillMissing: map[string]string{"algorithm_value": "None"},
		Drop:        []string{"router_rssi_threshold"},
	}

	report, err := newService(nil).Run(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, []string{"algorithm", "algorithm_value", trial.RateCorrect}, report.Summary.Columns())
	assert.Equal(t, "None", report.Summary.At(2, "algorithm_value").String())
}

func TestAnalysisService_LoadFailureIsNoOp(t *testing.T) {
	loader := NewStaticLoader("broken.csv", nil, stderrors.New("permission denied"))
	svc := NewAnalysisService(fakeResolver{}, nil, 1, internal.NewLogger(internal.LogLevelError))

	report, err := svc.RunWithLoader(context.Background(), config.DefaultAnalysis("broken.csv"), loader)
	require.NoError(t, err)

	assert.False(t, report.Loaded)
	assert.Contains(t, report.LoadError, "permission denied")
	assert.Nil(t, report.Summary)
	assert.Empty(t, report.Tables())
}

func TestAnalysisService_Errors(t *testing.T) {
	svc := newService(nil)

	_, err := svc.Run(context.Background(), config.Analysis{
		Name:    "bad_filter",
		Input:   "trials.csv",
		Filters: []config.Filter{{Column: "device_id", Equals: "x"}},
	})
	assert.Equal(t, errors.CodeSchemaMismatch, errors.GetCode(err))

	_, err = svc.Run(context.Background(), config.Analysis{
		Name:    "bad_outcome",
		Input:   "trials.csv",
		Columns: config.ColumnNames{Outcome: "algorithm"},
	})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.Run(context.Background(), config.Analysis{Name: "unknown", Input: "absent.csv"})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestAnalysisService_RunAll(t *testing.T) {
	svc := newService(nil)
	analyses := []config.Analysis{
		config.DefaultAnalysis("trials.csv"),
		{Name: "knn", Input: "trials.csv", Filters: []config.Filter{{Column: "algorithm", Equals: "knn"}}},
		{Name: "svm", Input: "trials.csv", Filters: []config.Filter{{Column: "algorithm", Equals: "svm"}}},
	}

	reports, err := svc.RunAll(context.Background(), analyses)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "default", reports[0].Analysis)
	assert.Equal(t, 5, reports[1].TrialCount)
	assert.Equal(t, 2, reports[2].TrialCount)

	_, err = svc.RunAll(context.Background(), append(analyses, config.Analysis{Name: "missing", Input: "absent.csv"}))
	assert.Error(t, err)
}
