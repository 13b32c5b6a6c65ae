package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Mode is the time-bucketing granularity.
type Mode string

const (
	Monthly Mode = "monthly"
	Weekly  Mode = "weekly"
	Daily   Mode = "daily"
)

// Modes lists the bucketing modes in view-cycle order.
var Modes = []Mode{Monthly, Weekly, Daily}

// ParseMode resolves a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Monthly:
		return Monthly, nil
	case Weekly:
		return Weekly, nil
	case Daily:
		return Daily, nil
	}
	return "", fmt.Errorf("unknown mode %q (want monthly, weekly or daily)", s)
}

// Next returns the following mode in the monthly -> weekly -> daily cycle.
func (m Mode) Next() Mode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return Monthly
}

// BucketKey identifies one time period under a bucketing mode.
// Only the fields relevant to Mode are set.
type BucketKey struct {
	Mode  Mode       `json:"mode"`
	Month time.Month `json:"month"`
	Week  int        `json:"week,omitempty"`
	Day   time.Time  `json:"day,omitzero"`
}

// SortKey orders keys of the same mode chronologically: the zero-based month
// index for monthly, month then ISO week for weekly, and Unix seconds for daily.
func (k BucketKey) SortKey() int64 {
	switch k.Mode {
	case Weekly:
		return int64(k.Month-1)*100 + int64(k.Week)
	case Daily:
		return k.Day.Unix()
	default:
		return int64(k.Month - 1)
	}
}

// Label renders the short chart label: "Feb", "Wk 5 (Feb)" or "05-Feb".
func (k BucketKey) Label() string {
	switch k.Mode {
	case Weekly:
		return fmt.Sprintf("Wk %d (%s)", k.Week, MonthAbbrev(k.Month))
	case Daily:
		return k.Day.Format("02-Jan")
	default:
		return MonthAbbrev(k.Month)
	}
}

// Start returns the first instant covered by the bucket in the given year.
func (k BucketKey) Start(year int) time.Time {
	switch k.Mode {
	case Daily:
		return k.Day
	case Weekly:
		// Monday of the ISO week, clamped into the bucket's month.
		first := time.Date(year, k.Month, 1, 0, 0, 0, 0, time.UTC)
		isoYear := year
		switch {
		case k.Month == time.January && k.Week >= 52:
			return first
		case k.Month == time.December && k.Week == 1:
			isoYear++
		}
		jan4 := time.Date(isoYear, time.January, 4, 0, 0, 0, 0, time.UTC)
		monday := jan4.AddDate(0, 0, -((int(jan4.Weekday())+6)%7)+(k.Week-1)*7)
		if monday.Before(first) {
			return first
		}
		return monday
	default:
		return time.Date(year, k.Month, 1, 0, 0, 0, 0, time.UTC)
	}
}

// Bucket is the aggregate of all records mapped to one key.
type Bucket struct {
	Key     BucketKey `json:"key"`
	Label   string    `json:"label"`
	SortKey int64     `json:"sort_key"`
	Records int       `json:"records"`
	Measures
}

// ForecastPoint is a bucket plus its naive projected sales.
type ForecastPoint struct {
	Bucket
	ForecastSalesUSD decimal.Decimal `json:"forecast_sales_usd"`
	ForecastSalesNPR decimal.Decimal `json:"forecast_sales_npr"`
}

// ForecastSales returns the projection for the given currency.
func (p ForecastPoint) ForecastSales(c Currency) decimal.Decimal {
	if c == CurrencyNPR {
		return p.ForecastSalesNPR
	}
	return p.ForecastSalesUSD
}

// Totals holds the grand totals over a record set.
type Totals struct {
	Measures
	AgenciesCount int `json:"agencies_count"`
	Records       int `json:"records"`
}

// DashboardView is the immutable snapshot the presentation layer renders.
type DashboardView struct {
	Criteria      FilterCriteria      `json:"criteria"`
	Mode          Mode                `json:"mode"`
	Totals        Totals              `json:"totals"`
	Buckets       []Bucket            `json:"buckets"`
	Forecast      []ForecastPoint     `json:"forecast"`
	AgencyOptions []string            `json:"agency_options"`
	MonthOptions  []string            `json:"month_options"`
	Transactions  []TransactionRecord `json:"transactions"`
}

// AgencyTotals is the sum of one agency's records.
type AgencyTotals struct {
	Agency  string `json:"agency"`
	Records int    `json:"records"`
	Measures
}
