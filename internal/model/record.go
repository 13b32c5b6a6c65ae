// Package model defines domain types for salesdash records, filters, and dashboard views.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Measures holds the four summed quantities tracked per transaction:
// passenger counts and sales amounts in USD and NPR.
type Measures struct {
	PaxUSD   decimal.Decimal `json:"pax_usd"`
	SalesUSD decimal.Decimal `json:"sales_usd"`
	PaxNPR   decimal.Decimal `json:"pax_npr"`
	SalesNPR decimal.Decimal `json:"sales_npr"`
}

// Add returns the field-wise sum of m and o.
func (m Measures) Add(o Measures) Measures {
	return Measures{
		PaxUSD:   m.PaxUSD.Add(o.PaxUSD),
		SalesUSD: m.SalesUSD.Add(o.SalesUSD),
		PaxNPR:   m.PaxNPR.Add(o.PaxNPR),
		SalesNPR: m.SalesNPR.Add(o.SalesNPR),
	}
}

// Sales returns the sales amount for the given currency.
func (m Measures) Sales(c Currency) decimal.Decimal {
	if c == CurrencyNPR {
		return m.SalesNPR
	}
	return m.SalesUSD
}

// Pax returns the passenger count for the given currency.
func (m Measures) Pax(c Currency) decimal.Decimal {
	if c == CurrencyNPR {
		return m.PaxNPR
	}
	return m.PaxUSD
}

// TransactionRecord is one normalized row of the sales CSV.
type TransactionRecord struct {
	Date      string    `json:"date"` // raw "DD-Mon"
	Day       time.Time `json:"day"`
	DateValid bool      `json:"date_valid"`
	Agency    string    `json:"agency"`
	Measures
}

// Currency selects which measure pair the presentation layer shows.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyNPR Currency = "NPR"
)

// ParseCurrency maps "usd"/"npr" (any case) to a Currency, defaulting to USD.
func ParseCurrency(s string) Currency {
	if strings.EqualFold(strings.TrimSpace(s), string(CurrencyNPR)) {
		return CurrencyNPR
	}
	return CurrencyUSD
}

// Toggle flips between USD and NPR.
func (c Currency) Toggle() Currency {
	if c == CurrencyNPR {
		return CurrencyUSD
	}
	return CurrencyNPR
}
