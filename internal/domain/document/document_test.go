package document

import (
	"strings"
	"testing"
)

func validMetadata(t *testing.T) Metadata {
	t.Helper()
	m, err := NewMetadata("EU", "v2.0", "billing", false, "2024-01-15", []string{"E-4012", "E-4013"})
	if err != nil {
		t.Fatalf("NewMetadata: %v", err)
	}
	return m
}

func TestNewMetadata_RejectsInvalidEnums(t *testing.T) {
	cases := []struct {
		name                      string
		region, version, category string
		date                      string
		codes                     []string
	}{
		{"bad region", "ASIA", "v2.0", "billing", "2024-01-15", nil},
		{"bad version", "EU", "v4.0", "billing", "2024-01-15", nil},
		{"bad category", "EU", "v2.0", "support", "2024-01-15", nil},
		{"bad date", "EU", "v2.0", "billing", "15.01.2024", nil},
		{"bad code", "EU", "v2.0", "billing", "2024-01-15", []string{"X-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewMetadata(tc.region, tc.version, tc.category, false, tc.date, tc.codes); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFlatten_UniformStringRecord(t *testing.T) {
	m := validMetadata(t)
	rec := m.Flatten()

	if rec[FieldDeprecated] != "false" {
		t.Errorf("deprecated: got %q", rec[FieldDeprecated])
	}
	if rec[FieldErrorCodes] != "E-4012,E-4013" {
		t.Errorf("error_codes_str: got %q", rec[FieldErrorCodes])
	}
	if rec[FieldEffectiveDate] != "2024-01-15" {
		t.Errorf("effective_date: got %q", rec[FieldEffectiveDate])
	}
}

func TestNew_ValidatesID(t *testing.T) {
	meta := validMetadata(t)

	if _, err := New("", "title", "body", meta); err == nil {
		t.Error("expected error for empty id")
	}
	if _, err := New("has space", "title", "body", meta); err == nil {
		t.Error("expected error for id with space")
	}
	if _, err := New(strings.Repeat("x", 257), "title", "body", meta); err == nil {
		t.Error("expected error for oversized id")
	}
	if _, err := New("ok_id-1", "", "body", meta); err == nil {
		t.Error("expected error for empty title")
	}
	if _, err := New("ok_id-1", "title", "", meta); err != nil {
		t.Errorf("empty body should be allowed: %v", err)
	}
}

func TestSearchText_ConcatenatesTitleAndBody(t *testing.T) {
	doc, err := New("d1", "Timeout errors", "Retry with backoff", validMetadata(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := doc.SearchText(); got != "Timeout errors Retry with backoff" {
		t.Errorf("SearchText() = %q", got)
	}
}
