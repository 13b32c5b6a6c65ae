// Package workbook turns a daily sales workbook (one sheet per day) into
// the flat CSV consumed by the dashboard.
package workbook

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/salesdash/internal/source"
)

var (
	// ErrRejected is returned by Accept for files that are not daily reports.
	ErrRejected = errors.New("not a daily report workbook")
	// ErrNoSheets is returned when a workbook has no daily sheets.
	ErrNoSheets = errors.New("no daily sheets found")
)

var daySheet = regexp.MustCompile(`(?i)^\d{1,2}-(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)

// headerRow is the zero-based row holding column names; row 0 is a title.
const headerRow = 1

// headerAliases maps normalized workbook headers to output columns.
var headerAliases = map[string]string{
	"travels agents name": source.ColAgency,
	"us $ pax":            source.ColPaxUSD,
	"npr pax":             source.ColPaxNPR,
	"us $ amount":         source.ColSalesUSD,
	"npr amount":          source.ColSalesNPR,
}

var measureColumns = []string{source.ColPaxUSD, source.ColSalesUSD, source.ColPaxNPR, source.ColSalesNPR}

// Accept applies the upload name rule: an .xlsx file whose name does not
// mention "main" (summary workbooks).
func Accept(filename string) error {
	lower := strings.ToLower(filename)
	if !strings.HasSuffix(lower, ".xlsx") {
		return fmt.Errorf("%w: %s is not an .xlsx file", ErrRejected, filename)
	}
	if strings.Contains(lower, "main") {
		return fmt.Errorf("%w: %s looks like a summary workbook", ErrRejected, filename)
	}
	return nil
}

// Result is a normalized workbook.
type Result struct {
	CSV         []byte
	Name        string
	First, Last time.Time
	Rows        int
	Dropped     int
	BadNumbers  int
	Sheets      []string
	Skipped     []string
}

// Normalizer converts workbooks. Year places sheet dates for the output
// file name; zero means source.DefaultYear.
type Normalizer struct {
	Year int
}

// Normalize reads an .xlsx stream and writes every daily sheet as CSV rows.
func (n Normalizer) Normalize(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	year := n.Year
	if year == 0 {
		year = source.DefaultYear
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(source.Columns); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, sheet := range f.GetSheetList() {
		name := strings.TrimSpace(sheet)
		if !daySheet.MatchString(name) {
			res.Skipped = append(res.Skipped, sheet)
			continue
		}

		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		cols, ok := mapHeader(rows)
		if !ok {
			res.Skipped = append(res.Skipped, sheet)
			continue
		}

		date := sheetDate(name)
		for _, row := range rows[headerRow+1:] {
			agency := cleanAgency(cell(row, cols[source.ColAgency]))
			if agency == "" || strings.EqualFold(agency, "total") {
				res.Dropped++
				continue
			}
			rec := []string{date, agency}
			for _, col := range measureColumns {
				v, ok := cleanNumber(cell(row, cols[col]))
				if !ok {
					res.BadNumbers++
				}
				rec = append(rec, v)
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
			res.Rows++
		}

		res.Sheets = append(res.Sheets, sheet)
		if day, ok := source.ParseDay(date, year); ok {
			if res.First.IsZero() || day.Before(res.First) {
				res.First = day
			}
			if day.After(res.Last) {
				res.Last = day
			}
		}
	}

	if len(res.Sheets) == 0 {
		return nil, ErrNoSheets
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}
	res.CSV = buf.Bytes()
	res.Name = OutputName(res.First, res.Last)
	return res, nil
}

// OutputName is the CSV file name for a date range.
func OutputName(first, last time.Time) string {
	if first.IsZero() {
		return "normalized_data.csv"
	}
	return fmt.Sprintf("normalized_data_%s_to_%s.csv", first.Format("Jan-2006"), last.Format("Jan-2006"))
}

// mapHeader locates output columns in the header row. -1 marks a measure
// column that is absent; the sheet is unusable without an agency column.
func mapHeader(rows [][]string) (map[string]int, bool) {
	if len(rows) <= headerRow {
		return nil, false
	}
	cols := map[string]int{source.ColAgency: -1}
	for _, c := range measureColumns {
		cols[c] = -1
	}
	for i, h := range rows[headerRow] {
		if name, ok := headerAliases[normalizeHeader(h)]; ok && cols[name] < 0 {
			cols[name] = i
		}
	}
	return cols, cols[source.ColAgency] >= 0
}

func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

// sheetDate keeps the "DD-Mon" head of a sheet name.
func sheetDate(name string) string {
	return daySheet.FindString(name)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

var agencyReplacer = strings.NewReplacer(",", " ", `"`, " ", "\r", " ", "\n", " ")

func cleanAgency(s string) string {
	return strings.Join(strings.Fields(agencyReplacer.Replace(s)), " ")
}

// cleanNumber strips thousands separators. Empty cells become "0"; so do
// values that still fail to parse, reported through ok.
func cleanNumber(s string) (string, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return "0", true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "0", false
	}
	return d.String(), true
}
