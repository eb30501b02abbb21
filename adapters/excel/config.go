package excel

import (
	"trialstats/adapters/datareadiness/coercer"
)

// ExcelConfig holds configuration for a CSV or XLSX data source
type ExcelConfig struct {
	FilePath       string                 `json:"file_path"`
	SheetName      string                 `json:"sheet_name"`
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
}

// DefaultExcelConfig reads Sheet1 of a workbook with default coercion
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		SheetName:      "Sheet1",
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
