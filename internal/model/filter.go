package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// All is the sentinel that disables a month or agency filter.
const All = "All"

// ErrEmptyAgencies is returned when an explicit agency selection is empty.
var ErrEmptyAgencies = errors.New("agency selection must not be empty")

// FilterCriteria selects which records feed the dashboard.
type FilterCriteria struct {
	Month    string   `json:"month"`
	Agencies []string `json:"agencies"`
}

// NewFilterCriteria builds criteria with the selection rules the dashboard
// uses: no agencies, or any list containing "All", means all agencies.
func NewFilterCriteria(month string, agencies []string) FilterCriteria {
	month = strings.TrimSpace(month)
	if month == "" || strings.EqualFold(month, All) {
		month = All
	}

	var picked []string
	for _, a := range agencies {
		if a == All {
			picked = nil
			break
		}
		if a != "" {
			picked = append(picked, a)
		}
	}
	if len(picked) == 0 {
		picked = []string{All}
	}
	return FilterCriteria{Month: month, Agencies: picked}
}

// AllAgencies reports whether the agency predicate is disabled.
func (c FilterCriteria) AllAgencies() bool {
	return len(c.Agencies) == 0 || c.Agencies[0] == All
}

// AllMonths reports whether the month predicate is disabled.
func (c FilterCriteria) AllMonths() bool {
	return c.Month == "" || c.Month == All
}

// Validate checks the criteria invariants.
func (c FilterCriteria) Validate() error {
	if len(c.Agencies) == 0 {
		return ErrEmptyAgencies
	}
	if !c.AllMonths() {
		if _, ok := MonthFromToken(c.Month); !ok {
			return fmt.Errorf("unknown month %q", c.Month)
		}
	}
	return nil
}

// MonthFromToken resolves a three-letter month abbreviation, case-insensitively.
func MonthFromToken(tok string) (time.Month, bool) {
	tok = strings.TrimSpace(tok)
	if len(tok) != 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String()[:3], tok) {
			return m, true
		}
	}
	return 0, false
}

// MonthAbbrev returns the three-letter abbreviation for m, e.g. "Feb".
func MonthAbbrev(m time.Month) string {
	return m.String()[:3]
}
