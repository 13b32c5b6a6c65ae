// Package pipeline filters, buckets and forecasts sales records, and loads them from their source.
package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/source"
)

// Aggregate computes grand totals and per-bucket sums for the given mode.
// Buckets are returned in ascending SortKey order; equal keys keep the
// order in which they were first seen.
func Aggregate(records []model.TransactionRecord, mode model.Mode) (model.Totals, []model.Bucket) {
	var totals model.Totals
	agencies := make(map[string]struct{})

	index := make(map[model.BucketKey]int)
	buckets := make([]model.Bucket, 0)

	for _, r := range records {
		totals.Measures = totals.Measures.Add(r.Measures)
		totals.Records++
		agencies[r.Agency] = struct{}{}

		key := BucketKeyFor(r, mode)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, model.Bucket{
				Key:     key,
				Label:   key.Label(),
				SortKey: key.SortKey(),
			})
		}
		b := &buckets[i]
		b.Measures = b.Measures.Add(r.Measures)
		b.Records++
	}

	totals.AgenciesCount = len(agencies)

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].SortKey < buckets[j].SortKey
	})

	return totals, buckets
}

// BucketKeyFor maps a record to its bucket under mode. Weekly buckets use
// the ISO week (weeks start on Monday) and are split at month boundaries.
func BucketKeyFor(r model.TransactionRecord, mode model.Mode) model.BucketKey {
	day := r.Day
	switch mode {
	case model.Weekly:
		_, week := day.ISOWeek()
		return model.BucketKey{Mode: model.Weekly, Month: day.Month(), Week: week}
	case model.Daily:
		return model.BucketKey{
			Mode:  model.Daily,
			Month: day.Month(),
			Day:   time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		}
	default:
		return model.BucketKey{Mode: model.Monthly, Month: day.Month()}
	}
}

// Filter returns the records matching both the month and the agency
// predicate, in input order. The month token of a record's raw date is
// compared case-insensitively; agency names must match exactly. Records
// with an empty date never match. Unparseable non-empty dates still do.
func Filter(records []model.TransactionRecord, c model.FilterCriteria) []model.TransactionRecord {
	allAgencies := c.AllAgencies()
	wanted := make(map[string]struct{}, len(c.Agencies))
	for _, a := range c.Agencies {
		wanted[a] = struct{}{}
	}

	result := make([]model.TransactionRecord, 0, len(records))
	for _, r := range records {
		if r.Date == "" {
			continue
		}
		if !c.AllMonths() && !strings.EqualFold(source.MonthToken(r.Date), c.Month) {
			continue
		}
		if !allAgencies {
			if _, ok := wanted[r.Agency]; !ok {
				continue
			}
		}
		result = append(result, r)
	}
	return result
}

// AgencyOptions returns the distinct agency names in first-seen order.
func AgencyOptions(records []model.TransactionRecord) []string {
	seen := make(map[string]struct{})
	opts := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Agency]; ok {
			continue
		}
		seen[r.Agency] = struct{}{}
		opts = append(opts, r.Agency)
	}
	return opts
}

// MonthOptions returns the month abbreviations present in the records, in
// calendar order. Only validly parsed dates contribute.
func MonthOptions(records []model.TransactionRecord) []string {
	var present [13]bool
	for _, r := range records {
		if r.DateValid {
			present[r.Day.Month()] = true
		}
	}
	opts := make([]string, 0)
	for m := time.January; m <= time.December; m++ {
		if present[m] {
			opts = append(opts, model.MonthAbbrev(m))
		}
	}
	return opts
}

// PeriodLabel renders the long label used by summary tables:
// "February 2025", "Week 5 of February" or "05 Feb 2025".
func PeriodLabel(k model.BucketKey, year int) string {
	switch k.Mode {
	case model.Weekly:
		return fmt.Sprintf("Week %d of %s", k.Week, k.Month)
	case model.Daily:
		return k.Day.Format("02 Jan 2006")
	default:
		return fmt.Sprintf("%s %d", k.Month, year)
	}
}

// AggregateAgencies sums records per agency, ranked by sales in the given
// currency (descending), then by name.
func AggregateAgencies(records []model.TransactionRecord, c model.Currency) []model.AgencyTotals {
	byAgency := make(map[string]*model.AgencyTotals)
	for _, r := range records {
		at, ok := byAgency[r.Agency]
		if !ok {
			at = &model.AgencyTotals{Agency: r.Agency}
			byAgency[r.Agency] = at
		}
		at.Records++
		at.Measures = at.Measures.Add(r.Measures)
	}

	agencies := make([]model.AgencyTotals, 0, len(byAgency))
	for _, at := range byAgency {
		agencies = append(agencies, *at)
	}
	sort.Slice(agencies, func(i, j int) bool {
		if cmp := agencies[i].Sales(c).Cmp(agencies[j].Sales(c)); cmp != 0 {
			return cmp > 0
		}
		return agencies[i].Agency < agencies[j].Agency
	})
	return agencies
}
