// Package source normalizes comma-separated sales exports into transaction records.
package source

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"
)

// Normalizer turns CSV text into records. Year is the reference year for
// "DD-Mon" dates; zero means DefaultYear.
type Normalizer struct {
	Year int
}

// Parse converts raw text into records. The first non-empty line is the
// header; fields are split on commas with no quoting support. Rows with
// fewer fields than headers are kept, and missing or unparseable measures
// become zero. Parse never fails: irregularities are counted in ParseStats.
func (n Normalizer) Parse(data []byte) ([]model.TransactionRecord, ParseStats) {
	year := n.Year
	if year == 0 {
		year = DefaultYear
	}

	var (
		stats   ParseStats
		records []model.TransactionRecord
		index   map[string]int
		width   int
	)

	// No line length limit: every row reaches the counters below.
	for raw := range bytes.SplitSeq(data, []byte{'\n'}) {
		line := strings.TrimSuffix(string(raw), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if index == nil {
			headers := strings.Split(strings.TrimPrefix(line, "\ufeff"), ",")
			width = len(headers)
			index = make(map[string]int, width)
			for i, h := range headers {
				h = strings.TrimSpace(h)
				if _, dup := index[h]; !dup {
					index[h] = i
				}
			}
			for _, col := range Columns {
				if _, ok := index[col]; !ok {
					stats.Missing = append(stats.Missing, col)
				}
			}
			continue
		}

		values := strings.Split(line, ",")
		if len(values) < width {
			stats.ShortRows++
		}
		field := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(values) {
				return ""
			}
			return values[i]
		}
		measure := func(col string) decimal.Decimal {
			raw := strings.TrimSpace(field(col))
			if raw == "" {
				return decimal.Zero
			}
			d, err := decimal.NewFromString(raw)
			if err != nil {
				stats.BadNumbers++
				return decimal.Zero
			}
			return d
		}

		rec := model.TransactionRecord{
			Date:   field(ColDate),
			Agency: field(ColAgency),
			Measures: model.Measures{
				PaxUSD:   measure(ColPaxUSD),
				SalesUSD: measure(ColSalesUSD),
				PaxNPR:   measure(ColPaxNPR),
				SalesNPR: measure(ColSalesNPR),
			},
		}
		rec.Day, rec.DateValid = ParseDay(rec.Date, year)
		if !rec.DateValid {
			stats.BadDates++
		}

		records = append(records, rec)
		stats.Rows++
	}

	return records, stats
}
