package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"trialstats/domain/trial"

	"github.com/xuri/excelize/v2"
)

// TableSource is what the writers need from a table.
type TableSource interface {
	Columns() []string
	Len() int
	Row(i int) []trial.Value
}

const maxSheetName = 31

// WriteWorkbook writes each sheet to one worksheet of a new XLSX file.
func WriteWorkbook(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		name := uniqueSheetName(SheetName(s.Name), used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, s.Table); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	log.Printf("[ExcelWriter] Wrote %d sheets to %s", len(sheets), path)
	return nil
}

func writeSheet(f *excelize.File, name string, t TableSource) error {
	header := make([]interface{}, 0)
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", name, err)
	}

	for i := 0; i < t.Len(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := t.Row(i)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+1, name, err)
		}
	}
	return nil
}

// cellValue maps a trial value onto the native excel cell type.
func cellValue(v trial.Value) interface{} {
	if f, ok := v.Float(); ok {
		if math.IsInf(f, 0) {
			return nil
		}
		return f
	}
	if b, ok := v.BoolValue(); ok {
		return b
	}
	if v.IsMissing() {
		return nil
	}
	return v.String()
}

// SheetName makes s a valid worksheet name.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.Trim(strings.TrimSpace(s), "'"))
	if s == "" {
		s = "Sheet"
	}
	if r := []rune(s); len(r) > maxSheetName {
		s = string(r[:maxSheetName])
	}
	return s
}

func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// WriteCSV writes the table with a header row. Missing cells are empty and
// every other cell is written in its display form.
func WriteCSV(w io.Writer, t TableSource) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to path, creating parent directories.
func WriteCSVFile(path string, t TableSource) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(file, t); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
