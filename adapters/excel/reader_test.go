package excel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trialstats/adapters/datareadiness/coercer"
	"trialstats/domain/trial"
	"trialstats/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const trialsCSV = `measurement_id,room_name,algorithm,algorithm_value,correct,distance
m1,A,knn,5,True,1.5
m2,A,knn,5,False,
m3,B,knn,5,True,2
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDataReader_LoadCSV(t *testing.T) {
	reader := NewDataReader(writeFile(t, "trials.csv", trialsCSV))

	tbl, err := reader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"measurement_id", "room_name", "algorithm", "algorithm_value", "correct", "distance"}, tbl.Columns())
	assert.Equal(t, 3, tbl.Len())

	assert.Equal(t, trial.KindBool, tbl.At(0, "correct").Kind())
	assert.Equal(t, "True", tbl.At(0, "correct").Raw())
	assert.Equal(t, trial.KindNumber, tbl.At(0, "algorithm_value").Kind())
	assert.True(t, tbl.At(1, "distance").IsMissing())
}

func TestDataReader_LoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"room_name", "algorithm_value", "correct"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"A", 5, true}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"B", 7, false}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := NewDataReader(path).Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, tbl.Len())
	v, ok := tbl.At(1, "algorithm_value").Float()
	require.True(t, ok)
	assert.Equal(t, 7.0, v)
	b, ok := tbl.At(0, "correct").BoolValue()
	require.True(t, ok)
	assert.True(t, b)
}

func TestDataReader_LoadFailures(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "absent.csv")},
		{"row wider than header", writeFile(t, "wide.csv", "a,b\n1,2,3\n")},
		{"duplicate header", writeFile(t, "dup.csv", "a,a\n1,2\n")},
		{"empty file", writeFile(t, "empty.csv", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := NewDataReader(tt.path).Load(context.Background())
			assert.Nil(t, tbl)
			assert.Equal(t, errors.CodeLoadFailed, errors.GetCode(err))
		})
	}
}

func TestParseCSV_ShortRowsArePadded(t *testing.T) {
	tbl, err := ParseCSV(strings.NewReader("room_name,correct,duration\nA,True\n"), coercer.DefaultCoercionConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, tbl.Len())
	assert.True(t, tbl.At(0, "duration").IsMissing())
}
