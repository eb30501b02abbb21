package aggregation

import (
	"testing"

	"trialstats/domain/core"
	"trialstats/domain/trial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyColumns(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		excluded []string
		want     []string
	}{
		{
			name:     "keeps source order",
			columns:  []string{"router_rssi_threshold", "room_name", "algorithm", "correct", "algorithm_value"},
			excluded: []string{"room_name", "correct"},
			want:     []string{"router_rssi_threshold", "algorithm", "algorithm_value"},
		},
		{
			name:     "absent exclusions are ignored",
			columns:  []string{"algorithm", "correct"},
			excluded: []string{"correct", "predict_room", "device_id"},
			want:     []string{"algorithm"},
		},
		{
			name:     "nothing excluded",
			columns:  []string{"a", "b"},
			excluded: nil,
			want:     []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyColumns(tt.columns, tt.excluded))
		})
	}
}

func TestDescribeFactors(t *testing.T) {
	schema, err := DescribeFactors(knnTrials(t), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, "room_name", schema.Room)
	assert.Equal(t, "correct", schema.Outcome)
	assert.Equal(t, []string{"algorithm", "algorithm_value"}, schema.FactorNames())

	value, ok := schema.Factor("algorithm_value")
	require.True(t, ok)
	assert.Equal(t, trial.KindNumber, value.Kind)
	assert.Equal(t, 1, value.Levels)

	algorithm, _ := schema.Factor("algorithm")
	assert.Equal(t, trial.KindString, algorithm.Kind)
}

func TestDescribeFactors_RequiredColumns(t *testing.T) {
	cfg := DefaultConfig()

	noOutcome := knnTrials(t).Drop("correct")
	_, err := DescribeFactors(noOutcome, cfg)
	assert.True(t, core.IsMissingColumnError(err))

	noRoom := knnTrials(t).Drop("room_name")
	_, err = DescribeFactors(noRoom, cfg)
	assert.True(t, core.IsMissingColumnError(err))

	_, err = DescribeFactors(nil, cfg)
	assert.ErrorIs(t, err, core.ErrNoData)
}

func TestConfig_ExclusionsIncludeNamedColumns(t *testing.T) {
	cfg := Config{RoomColumn: "room", OutcomeColumn: "verdict", ExcludedColumns: []string{"device_id", "room"}}
	assert.Equal(t, []string{"device_id", "room", "verdict"}, cfg.Exclusions())
}
