package storage

import (
	"errors"
	"testing"
	"time"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func TestCheckExport(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		size        int64
		ok          bool
	}{
		{"csv", "leads.csv", "text/csv", 5, true},
		{"csv with charset", "leads.csv", "text/csv; charset=utf-8", 5, true},
		{"xlsx", "leads.xlsx", xlsxType, 5, true},
		{"wrong extension", "leads.csv", xlsxType, 5, false},
		{"image", "leads.png", "image/png", 5, false},
		{"garbage type", "leads.csv", ";;", 5, false},
		{"over limit", "leads.csv", "text/csv", 11, false},
		{"at limit", "leads.csv", "text/csv", 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkExport(tt.fileName, tt.contentType, tt.size, 10)
			if (err == nil) != tt.ok {
				t.Fatalf("checkExport = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestCheckExportRejectsEmpty(t *testing.T) {
	if err := checkExport("leads.csv", "text/csv", 0, 0); !errors.Is(err, ErrEmptyExport) {
		t.Fatalf("expected ErrEmptyExport, got %v", err)
	}
}

func TestExportKey(t *testing.T) {
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	if got := exportKey("t1", at, "leads-20240309.csv", "abcd1234"); got != "t1/exports/2024/03/leads-20240309_abcd1234.csv" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := exportKey("t1", at, "../../other/leads.xlsx", "x"); got != "t1/exports/2024/03/leads_x.xlsx" {
		t.Fatalf("expected path components stripped, got %q", got)
	}
}
