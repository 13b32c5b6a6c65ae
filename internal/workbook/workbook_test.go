package workbook

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/salesdash/internal/source"
)

var header = []any{"Travels Agents  Name", "US $ PAX", "US $ Amount", "NPR PAX", "NPR Amount"}

func buildWorkbook(t *testing.T, sheets map[string][][]any, order []string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatal(err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for r, row := range sheets[name] {
			cellRef, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetSheetRow(name, cellRef, &row); err != nil {
				t.Fatal(err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestNormalize(t *testing.T) {
	sheets := map[string][][]any{
		"01-Feb": {
			{"Daily sales report"},
			header,
			{"Agency, One", 0, 0, 40, 291611.46},
			{"B", 12, "2,198.24", 7, 51458.79},
			{"Total", 12, 2198.24, 47, 343070.25},
			{"", 1, 1, 1, 1},
		},
		"Main Aug-25": {
			{"summary"},
			header,
			{"Z", 1, 1, 1, 1},
		},
		"03-mar": {
			{"Daily sales report"},
			header,
			{"C", "", 5, "", "n/a"},
		},
	}
	buf := buildWorkbook(t, sheets, []string{"01-Feb", "Main Aug-25", "03-mar"})

	res, err := Normalizer{}.Normalize(buf)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if res.Rows != 3 || res.Dropped != 2 {
		t.Errorf("Rows = %d, Dropped = %d; want 3, 2", res.Rows, res.Dropped)
	}
	if res.BadNumbers != 1 {
		t.Errorf("BadNumbers = %d, want 1", res.BadNumbers)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "Main Aug-25" {
		t.Errorf("Skipped = %v, want [Main Aug-25]", res.Skipped)
	}
	if res.Name != "normalized_data_Feb-2025_to_Mar-2025.csv" {
		t.Errorf("Name = %q", res.Name)
	}

	want := strings.Join([]string{
		"date,agency,pax_usd,sales_usd,pax_npr,sales_npr",
		"01-Feb,Agency One,0,0,40,291611.46",
		"01-Feb,B,12,2198.24,7,51458.79",
		"03-mar,C,0,5,0,0",
	}, "\n") + "\n"
	if got := string(res.CSV); got != want {
		t.Errorf("CSV =\n%s\nwant\n%s", got, want)
	}

	// The output feeds the record normalizer unchanged.
	recs, stats := source.Normalizer{}.Parse(res.CSV)
	if len(recs) != 3 || stats.BadDates != 0 || len(stats.Missing) != 0 {
		t.Errorf("re-parse: %d records, stats %+v", len(recs), stats)
	}
}

func TestCleanAgency(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Agency, One", "Agency One"},
		{`Say "Hi" Travels`, "Say Hi Travels"},
		{"Two\nLines\r\n", "Two Lines"},
		{"  spaced   out ", "spaced out"},
	}
	for _, tt := range tests {
		got := cleanAgency(tt.in)
		if got != tt.want {
			t.Errorf("cleanAgency(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if strings.ContainsAny(got, ",\"\r\n") {
			t.Errorf("cleanAgency(%q) = %q still needs CSV quoting", tt.in, got)
		}
	}
}

func TestNormalize_NoDailySheets(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]any{"Main Aug-25": {{"x"}, header}}, []string{"Main Aug-25"})
	if _, err := (Normalizer{}).Normalize(buf); !errors.Is(err, ErrNoSheets) {
		t.Errorf("err = %v, want ErrNoSheets", err)
	}
}

func TestNormalize_NotAWorkbook(t *testing.T) {
	if _, err := (Normalizer{}).Normalize(strings.NewReader("date,agency\n")); err == nil {
		t.Error("expected error for non-xlsx input")
	}
}

func TestAccept(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"Sales Feb 2025.xlsx", true},
		{"REPORT.XLSX", true},
		{"Main Aug-25.xlsx", false},
		{"domain_report.xlsx", false},
		{"sales.csv", false},
		{"sales.xlsx.bak", false},
	}
	for _, tt := range tests {
		err := Accept(tt.name)
		if (err == nil) != tt.ok {
			t.Errorf("Accept(%q) = %v, want ok=%v", tt.name, err, tt.ok)
		}
		if err != nil && !errors.Is(err, ErrRejected) {
			t.Errorf("Accept(%q) error does not wrap ErrRejected", tt.name)
		}
	}
}

func TestOutputName(t *testing.T) {
	if got := OutputName(time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC)); got != "normalized_data_Aug-2025_to_Sep-2025.csv" {
		t.Errorf("OutputName = %q", got)
	}
}
