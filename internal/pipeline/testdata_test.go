package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/source"
)

// rec builds a normalized record the same way the CSV normalizer does.
func rec(t testing.TB, date, agency, paxUSD, salesUSD, paxNPR, salesNPR string) model.TransactionRecord {
	t.Helper()
	r := model.TransactionRecord{
		Date:   date,
		Agency: agency,
		Measures: model.Measures{
			PaxUSD:   decimal.RequireFromString(paxUSD),
			SalesUSD: decimal.RequireFromString(salesUSD),
			PaxNPR:   decimal.RequireFromString(paxNPR),
			SalesNPR: decimal.RequireFromString(salesNPR),
		},
	}
	r.Day, r.DateValid = source.ParseDay(date, source.DefaultYear)
	return r
}

func scenarioRecords(t testing.TB) []model.TransactionRecord {
	t.Helper()
	return []model.TransactionRecord{
		rec(t, "01-Feb", "A", "0", "0", "40", "291611.46"),
		rec(t, "02-Feb", "B", "12", "2198.24", "7", "51458.79"),
	}
}

// mixedRecords spans several months, weeks and days, out of order, with
// repeated agencies.
func mixedRecords(t testing.TB) []model.TransactionRecord {
	t.Helper()
	return []model.TransactionRecord{
		rec(t, "15-Mar", "A", "3", "410.10", "1", "9000.05"),
		rec(t, "01-Feb", "A", "0", "0", "40", "291611.46"),
		rec(t, "31-Jan", "C", "2", "120.33", "0", "0"),
		rec(t, "02-Feb", "B", "12", "2198.24", "7", "51458.79"),
		rec(t, "03-Feb", "B", "1", "99.99", "2", "13000.10"),
		rec(t, "27-Jan", "A", "4", "800.00", "3", "1500.50"),
		rec(t, "15-mar", "D", "1", "0.01", "1", "0.02"),
		rec(t, "garbage", "E", "1", "1", "1", "1"),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
