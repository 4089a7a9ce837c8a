package domain

import "testing"

func TestSetFieldAndField(t *testing.T) {
	var l Lead
	cases := []struct {
		field string
		value string
		want  string
		ok    bool
	}{
		{FieldFirstName, "  Asha ", "Asha", true},
		{FieldEmail, "asha@example.com", "asha@example.com", true},
		{FieldEmailOpened, "Yes", "true", true},
		{FieldLinkClicked, "maybe", "false", false},
		{FieldScheduledCall, "2024-03-01T10:00:00Z", "2024-03-01T10:00:00Z", true},
		{FieldScheduledCall, "tomorrow", "2024-03-01T10:00:00Z", false},
		{FieldScore, "99", "0", false},
		{"Favourite_Colour", "blue", "", false},
	}

	for _, tc := range cases {
		if ok := l.SetField(tc.field, tc.value); ok != tc.ok {
			t.Fatalf("SetField(%s, %q) = %v, want %v", tc.field, tc.value, ok, tc.ok)
		}
		if got := l.Field(tc.field); got != tc.want {
			t.Fatalf("Field(%s) = %q, want %q", tc.field, got, tc.want)
		}
	}
}

func TestNormalizeRecordPrefersCanonicalKey(t *testing.T) {
	record := map[string]any{
		"email":    "alias@example.com",
		FieldEmail: "canonical@example.com",
		"phone":    "+919876543210",
		"unknown":  "kept",
	}
	renamed := NormalizeRecord(record)

	if len(renamed) != 2 {
		t.Fatalf("expected two alias keys rewritten, got %v", renamed)
	}
	if record[FieldEmail] != "canonical@example.com" {
		t.Fatalf("canonical key should win, got %v", record[FieldEmail])
	}
	if record[FieldMobile] != "+919876543210" {
		t.Fatalf("expected phone alias mapped to %s, got %v", FieldMobile, record[FieldMobile])
	}
	if _, ok := record["email"]; ok {
		t.Fatal("alias key should be removed")
	}
	if record["unknown"] != "kept" {
		t.Fatal("unknown keys must be left alone")
	}
}
