package spreadsheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"crm_dashboard_backend/internal/leads/domain"
)

func TestMapRowsRejectsMissingRequiredColumns(t *testing.T) {
	input := "first_name,last_name,Email_ID\nAsha,Rao,asha@example.com\n"
	sheet, err := Read(strings.NewReader(input), FormatCSV)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	rows, err := MapRows(sheet)
	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if rows != nil {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
	if len(missing.Missing) != 1 || missing.Missing[0] != domain.FieldMobile {
		t.Fatalf("expected only %s missing, got %v", domain.FieldMobile, missing.Missing)
	}
}

func TestMapRowsListsEveryMissingColumn(t *testing.T) {
	_, err := MapRows(Sheet{Header: []string{"company_name"}})
	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if len(missing.Missing) != len(domain.RequiredImportColumns) {
		t.Fatalf("expected all required columns listed, got %v", missing.Missing)
	}
}

func TestMapRowsMapsAliasesAndIgnoresUnknownColumns(t *testing.T) {
	input := "\ufefffirst_name,last_name,Email_ID,Mobile_Number,Company_Name,Shoe_Size\n" +
		"Asha,Rao,asha@example.com,+919876543210,Acme,42\n" +
		",,,,,\n" +
		"Ravi,Iyer,ravi@example.com,+919812345678\n"
	sheet, err := Read(strings.NewReader(input), FormatCSV)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	rows, err := MapRows(sheet)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected blank row skipped, got %d rows", len(rows))
	}
	if rows[0].Fields[domain.FieldCompany] != "Acme" {
		t.Fatalf("expected alias Company_Name mapped, got %v", rows[0])
	}
	if _, ok := rows[0].Fields["Shoe_Size"]; ok {
		t.Fatal("unknown column should be ignored")
	}
	if rows[1].Fields[domain.FieldFirstName] != "Ravi" {
		t.Fatalf("unexpected second row %v", rows[1])
	}
	if rows[0].Line != 1 || rows[1].Line != 3 {
		t.Fatalf("expected source lines 1 and 3, got %d and %d", rows[0].Line, rows[1].Line)
	}
}

func TestMapRowsIsCaseSensitive(t *testing.T) {
	_, err := MapRows(Sheet{Header: []string{"FIRST_NAME", "last_name", "Email_ID", "Mobile_Number"}})
	var missing *MissingColumnsError
	if !errors.As(err, &missing) || missing.Missing[0] != domain.FieldFirstName {
		t.Fatalf("expected first_name missing, got %v", err)
	}
}

func TestWriteThenReadXLSX(t *testing.T) {
	leads := []domain.Lead{
		{ID: "l1", FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Mobile: "+919876543210", Score: 30},
	}
	var buf bytes.Buffer
	if err := Write(&buf, FormatXLSX, leads); err != nil {
		t.Fatalf("write: %v", err)
	}

	sheet, err := Read(&buf, FormatXLSX)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	rows, err := MapRows(sheet)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if len(rows) != 1 || rows[0].Fields[domain.FieldEmail] != "asha@example.com" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestDetectFormat(t *testing.T) {
	if f, err := DetectFormat("Leads.XLSX"); err != nil || f != FormatXLSX {
		t.Fatalf("expected xlsx, got %q %v", f, err)
	}
	if _, err := DetectFormat("leads.xls"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}
