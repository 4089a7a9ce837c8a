// Package spreadsheet reads lead imports and writes lead exports in CSV and
// XLSX form.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"crm_dashboard_backend/internal/leads/domain"

	"github.com/xuri/excelize/v2"
)

// Format is a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

const utf8BOM = "\ufeff"

// DetectFormat picks the format from a file name extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
}

// ParseFormat accepts the format names used in query strings.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Sheet is the header row and data rows of the first worksheet.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Read loads the first sheet of a file.
func Read(r io.Reader, format Format) (Sheet, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r)
	default:
		return Sheet{}, ErrUnsupportedFormat
	}
	if err != nil {
		return Sheet{}, err
	}
	for len(rows) > 0 && len(rows[0]) == 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return Sheet{}, nil
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return Sheet{Header: header, Rows: rows[1:]}, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// encoding/csv skips empty lines; they are padded back in as blank rows
	// so row numbers match the file.
	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		for len(rows) < line-1 {
			rows = append(rows, nil)
		}
		rows = append(rows, record)
	}
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// MissingColumnsError lists required columns absent from a header.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// Row is one mapped data row. Line is its 1-based position among the data
// rows of the sheet, counting the blank rows MapRows drops.
type Row struct {
	Line   int
	Fields map[string]string
}

// MapRows turns sheet rows into canonical field maps. Header names are
// matched case-sensitively, through the alias table; unknown columns are
// ignored and fully blank rows skipped. If any required column is absent
// nothing is mapped.
func MapRows(sheet Sheet) ([]Row, error) {
	columns := make(map[int]string, len(sheet.Header))
	present := make(map[string]struct{}, len(sheet.Header))
	for i, name := range sheet.Header {
		canonical, ok := domain.Canonical(name)
		if !ok {
			continue
		}
		if _, dup := present[canonical]; dup {
			continue
		}
		columns[i] = canonical
		present[canonical] = struct{}{}
	}

	var missing []string
	for _, required := range domain.RequiredImportColumns {
		if _, ok := present[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	out := make([]Row, 0, len(sheet.Rows))
	for line, row := range sheet.Rows {
		record := make(map[string]string, len(columns))
		blank := true
		for i, field := range columns {
			if i >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[i])
			if value != "" {
				blank = false
			}
			record[field] = value
		}
		if !blank {
			out = append(out, Row{Line: line + 1, Fields: record})
		}
	}
	return out, nil
}

// Write renders leads with domain.ExportColumns as the header.
func Write(w io.Writer, format Format, leads []domain.Lead) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, leads)
	case FormatXLSX:
		return writeXLSX(w, leads)
	}
	return ErrUnsupportedFormat
}

func writeCSV(w io.Writer, leads []domain.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.ExportColumns); err != nil {
		return err
	}
	for _, lead := range leads {
		if err := cw.Write(exportRow(lead)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const exportSheet = "Leads"

func writeXLSX(w io.Writer, leads []domain.Lead) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", toCells(domain.ExportColumns)); err != nil {
		return err
	}
	for i, lead := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, toCells(exportRow(lead))); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func exportRow(lead domain.Lead) []string {
	row := make([]string, len(domain.ExportColumns))
	for i, field := range domain.ExportColumns {
		row[i] = lead.Field(field)
	}
	return row
}

func toCells(values []string) *[]interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &cells
}
