// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"
)

var thousand = decimal.NewFromInt(1_000)

// FormatAmount renders d with thousands separators and two decimals.
// e.g., 343070.25 -> "343,070.25", -5 -> "-5.00"
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		// Beyond int64; leave the integer part ungrouped.
		return d.StringFixed(2)
	}
	out := FormatNumber(n) + "." + frac
	if neg && strings.Trim(out, "0.,") != "" {
		out = "-" + out
	}
	return out
}

// FormatMoney prefixes an amount with its currency symbol.
// e.g., USD -> "$2,198.24", NPR -> "Rs 343,070.25"
func FormatMoney(c model.Currency, d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + CurrencySymbol(c) + FormatAmount(d)
}

// CurrencySymbol returns the display prefix for c.
func CurrencySymbol(c model.Currency) string {
	if c == model.CurrencyNPR {
		return "Rs "
	}
	return "$"
}

// FormatCompact abbreviates large amounts for metric cards.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M"
func FormatCompact(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(thousand.Pow(decimal.NewFromInt(3))):
		return d.Div(thousand.Pow(decimal.NewFromInt(3))).StringFixed(1) + "B"
	case abs.GreaterThanOrEqual(thousand.Mul(thousand)):
		return d.Div(thousand.Mul(thousand)).StringFixed(1) + "M"
	case abs.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(1) + "K"
	default:
		return d.StringFixed(0)
	}
}

// FormatPax renders a passenger count. Fractional counts are kept.
func FormatPax(d decimal.Decimal) string {
	if d.IsInteger() && d.Abs().LessThan(decimal.NewFromInt(1<<62)) {
		return FormatNumber(d.IntPart())
	}
	return FormatAmount(d)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDelta renders a signed change in amount.
func FormatDelta(c model.Currency, current, previous decimal.Decimal) string {
	delta := current.Sub(previous)
	if delta.IsNegative() {
		return FormatMoney(c, delta)
	}
	return "+" + FormatMoney(c, delta)
}
