package excel

// ExcelData is a sheet as read from disk: the header row and the data rows,
// every row padded to the header width.
type ExcelData struct {
	Headers []string   // Column headers
	Rows    [][]string // Data rows
}

// Sheet is one named table to write into a workbook.
type Sheet struct {
	Name  string
	Table TableSource
}
