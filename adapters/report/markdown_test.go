package report

import (
	"testing"

	"trialstats/domain/trial"

	"github.com/stretchr/testify/assert"
)

func summary() *trial.Table {
	tbl := trial.NewTable([]string{"algorithm", "correct_percent"})
	tbl.MustAppend(trial.Text("knn|euclid"), trial.Number(200.0/3))
	tbl.MustAppend(trial.Text("svm"), trial.Number(75))
	tbl.MustAppend(trial.Missing(), trial.Number(62.5))
	return tbl
}

func TestDocument_Markdown(t *testing.T) {
	doc := NewDocument("Room accuracy").Add("Summary", "Mean over rooms.", summary())

	assert.Equal(t,
		"# Room accuracy\n\n"+
			"## Summary\n\n"+
			"Mean over rooms.\n\n"+
			"| algorithm | correct_percent |\n"+
			"| --- | --- |\n"+
			"| knn\\|euclid | 66.67 |\n"+
			"| svm | 75 |\n"+
			"|  | 62.5 |\n\n",
		string(doc.Markdown()))
}

func TestDocument_HTML(t *testing.T) {
	doc := NewDocument("Room accuracy").Add("Summary", "", summary())

	out := string(doc.HTML())
	assert.Contains(t, out, "<title>Room accuracy</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>svm</td>")
	assert.Contains(t, out, "<td>66.67</td>")
}

func TestDocument_EmptyTable(t *testing.T) {
	doc := NewDocument("Pruned").Add("Pruned", "", trial.NewTable(nil))
	assert.Contains(t, string(doc.Markdown()), "_no columns_")
}
