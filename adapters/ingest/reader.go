package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vcfo/domain/table"

	"github.com/xuri/excelize/v2"
)

// classifySampleRows bounds how many rows are inspected when typing columns.
const classifySampleRows = 500

// DataReader loads a CSV or Excel file into a typed Table.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	coercer  *TypeCoercer
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xls" {
		fileType = "xlsx"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		coercer:  NewTypeCoercer(DefaultCoercionConfig()),
	}
}

// Read loads the whole file, classifies each column from a bounded sample and
// coerces every cell to a typed value.
func (r *DataReader) Read() (*table.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var raw [][]string
	var err error
	switch r.fileType {
	case "xlsx":
		raw, err = r.readExcelRows()
	default:
		raw, err = r.readCSVRows()
	}
	if err != nil {
		return nil, err
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}
	return r.buildTable(raw)
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheet = "Sheet1"
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func (r *DataReader) buildTable(raw [][]string) (*table.Table, error) {
	header := raw[0]
	body := raw[1:]

	columns := make([]table.Column, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		// Row maps are keyed by column name, so duplicates get a suffix.
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		sample := columnSample(body, i, classifySampleRows)
		columns[i] = table.Column{
			Name: name,
			Kind: r.coercer.ClassifyColumn(sample),
		}
	}

	rows := make([]table.Row, 0, len(body))
	for _, record := range body {
		row := make(table.Row, len(columns))
		for i, col := range columns {
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			row[col.Name] = r.coercer.CoerceValue(cell, col.Kind)
		}
		rows = append(rows, row)
	}

	return &table.Table{Columns: columns, Rows: rows}, nil
}

func columnSample(body [][]string, col, limit int) []string {
	n := len(body)
	if n > limit {
		n = limit
	}
	sample := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if col < len(body[i]) {
			sample = append(sample, body[i][col])
		}
	}
	return sample
}
