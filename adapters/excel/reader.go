package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trialstats/adapters/datareadiness/coercer"
	"trialstats/domain/trial"
	"trialstats/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   ExcelConfig
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	cfg := DefaultExcelConfig()
	cfg.FilePath = filePath
	return NewDataReaderWithConfig(cfg)
}

// NewDataReaderWithConfig creates a reader with explicit sheet and coercion settings
func NewDataReaderWithConfig(cfg ExcelConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(cfg.FilePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}
	return &DataReader{filePath: cfg.FilePath, fileType: fileType, config: cfg}
}

// Source names the file the reader loads.
func (r *DataReader) Source() string { return r.filePath }

// Load reads the file and types its cells. Any failure comes back as a
// LOAD_FAILED AppError.
func (r *DataReader) Load(ctx context.Context) (*trial.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.LoadFailed(r.filePath, err)
	}
	data, err := r.ReadData()
	if err != nil {
		return nil, errors.LoadFailed(r.filePath, err)
	}
	table, err := coercer.NewTypeCoercer(r.config.CoercionConfig).CoerceTable(data.Headers, data.Rows)
	if err != nil {
		return nil, errors.LoadFailed(r.filePath, err)
	}
	return table, nil
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	// Check if file exists
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads Excel data from the configured sheet into structured format
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	log.Printf("[DataReader] Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	readStart := time.Now()
	rows, err := f.GetRows(r.config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.config.SheetName, err)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", r.config.SheetName, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	readStart := time.Now()
	rows, err := ReadCSV(file)
	if err != nil {
		return nil, err
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// ReadCSV reads every record of a CSV stream. Records may be shorter than the
// header; longer ones are rejected when rows are processed.
func ReadCSV(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// ParseCSV reads a CSV stream with a header row straight into a typed table.
func ParseCSV(src io.Reader, cfg coercer.CoercionConfig) (*trial.Table, error) {
	rows, err := ReadCSV(src)
	if err != nil {
		return nil, err
	}
	data, err := toExcelData(rows)
	if err != nil {
		return nil, err
	}
	return coercer.NewTypeCoercer(cfg).CoerceTable(data.Headers, data.Rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	data, err := toExcelData(rows)
	if err != nil {
		return nil, err
	}
	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(data.Headers), len(data.Rows))
	return data, nil
}

func toExcelData(rows [][]string) (*ExcelData, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	dataRows := make([][]string, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) > len(headers) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(headers))
		}
		padded := make([]string, len(headers))
		copy(padded, row)
		dataRows = append(dataRows, padded)
	}

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}
