package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"trialstats/adapters/excel"
	"trialstats/adapters/report"
	"trialstats/internal/errors"
)

// Exporter writes reports to OUTPUT_DIR in the configured formats
type Exporter struct {
	dir     string
	formats []string
}

// NewExporter creates an exporter for the given directory and formats
// (xlsx, csv, md, html, json).
func NewExporter(dir string, formats []string) *Exporter {
	return &Exporter{dir: dir, formats: formats}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// FileStem turns an analysis name into a safe file name stem.
func FileStem(name string) string {
	stem := strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_.")
	if stem == "" {
		return "analysis"
	}
	return stem
}

// Export writes one report and returns the files it created. A report whose
// input did not load has nothing to export.
func (e *Exporter) Export(r *Report) ([]string, error) {
	if r == nil || !r.Loaded {
		return nil, nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	stem := FileStem(r.Analysis)
	var written []string
	for _, format := range e.formats {
		paths, err := e.write(format, stem, r)
		if err != nil {
			return written, errors.Wrapf(err, "export %s as %s", r.Analysis, format)
		}
		written = append(written, paths...)
	}
	log.Printf("[Exporter] %s: wrote %d files to %s", r.Analysis, len(written), e.dir)
	return written, nil
}

func (e *Exporter) write(format, stem string, r *Report) ([]string, error) {
	tables := r.Tables()
	switch format {
	case "xlsx":
		path := filepath.Join(e.dir, stem+".xlsx")
		sheets := make([]excel.Sheet, len(tables))
		for i, t := range tables {
			sheets[i] = excel.Sheet{Name: t.Name, Table: t.Table}
		}
		return []string{path}, excel.WriteWorkbook(path, sheets)
	case "csv":
		var paths []string
		for _, t := range tables {
			path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.csv", stem, FileStem(t.Name)))
			if err := excel.WriteCSVFile(path, t.Table); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
		return paths, nil
	case "md":
		path := filepath.Join(e.dir, stem+".md")
		return []string{path}, os.WriteFile(path, Document(r).Markdown(), 0o644)
	case "html":
		path := filepath.Join(e.dir, stem+".html")
		return []string{path}, os.WriteFile(path, Document(r).HTML(), 0o644)
	case "json":
		path := filepath.Join(e.dir, stem+".json")
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return []string{path}, os.WriteFile(path, data, 0o644)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown export format %q", format))
	}
}

// Document lays a report out as a Markdown/HTML document.
func Document(r *Report) *report.Document {
	doc := report.NewDocument(r.Analysis)
	intro := fmt.Sprintf("Run `%s` over `%s`: %d trials, definition `%s`.",
		r.RunID, r.Source, r.TrialCount, r.DefinitionHash.Short())
	if r.Schema != nil {
		intro += fmt.Sprintf(" Factors: %s.", strings.Join(r.Schema.FactorNames(), ", "))
	}
	if r.Unmatched > 0 {
		intro += fmt.Sprintf(" %d outcome labels matched no category.", r.Unmatched)
	}
	doc.Add("Run", intro, nil)
	for _, t := range r.Tables() {
		doc.Add(t.Name, "", t.Table)
	}
	return doc
}
