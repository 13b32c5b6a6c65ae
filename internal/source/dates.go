package source

import (
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/salesdash/internal/model"
)

// ParseDay interprets a "DD-Mon" string in the given year. The month
// abbreviation is matched case-insensitively and the day must exist in
// that month. On failure it returns January 1 of year and false.
func ParseDay(s string, year int) (time.Time, bool) {
	fallback := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) < 2 {
		return fallback, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return fallback, false
	}
	month, ok := model.MonthFromToken(parts[1])
	if !ok {
		return fallback, false
	}
	if day < 1 || day > daysIn(month, year) {
		return fallback, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

// MonthToken returns the second "-"-delimited component of a raw date,
// or "" when there is none.
func MonthToken(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
