package excel

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"trialstats/domain/trial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func summaryTable() *trial.Table {
	tbl := trial.NewTable([]string{"algorithm", "interpolated", "correct_percent"})
	tbl.MustAppend(trial.Text("knn"), trial.Bool(true), trial.Number(75))
	tbl.MustAppend(trial.Text("svm"), trial.Missing(), trial.Number(62.5))
	return tbl
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.xlsx")
	err := WriteWorkbook(path, []Sheet{
		{Name: "summary", Table: summaryTable()},
		{Name: "summary", Table: summaryTable()},
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"summary", "summary_2"}, f.GetSheetList())

	rows, err := f.GetRows("summary")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"algorithm", "interpolated", "correct_percent"}, rows[0])
	assert.Equal(t, []string{"knn", "TRUE", "75"}, rows[1])
	assert.Equal(t, []string{"svm", "", "62.5"}, rows[2])

	assert.Error(t, WriteWorkbook(path, nil))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "rssi_threshold", SheetName("rssi/threshold"))
	assert.Equal(t, "Sheet", SheetName("  "))
	assert.Len(t, []rune(SheetName(strings.Repeat("x", 40))), 31)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, summaryTable()))

	assert.Equal(t, "algorithm,interpolated,correct_percent\nknn,true,75\nsvm,,62.5\n", buf.String())
}
