package pipeline

import (
	"testing"

	"github.com/theirongolddev/salesdash/internal/model"
)

func TestCompute_Scenario(t *testing.T) {
	records := scenarioRecords(t)

	view := Compute(records, model.NewFilterCriteria(model.All, []string{"A"}), model.Monthly, WithRand(NewRand(1)))

	if view.Totals.AgenciesCount != 1 || view.Totals.Records != 1 {
		t.Errorf("Totals = %+v, want 1 agency, 1 record", view.Totals)
	}
	if len(view.Transactions) != 1 || view.Transactions[0].Agency != "A" {
		t.Errorf("Transactions = %v, want the single A record", view.Transactions)
	}
	// Options come from the unfiltered set.
	if len(view.AgencyOptions) != 2 {
		t.Errorf("AgencyOptions = %v, want [A B]", view.AgencyOptions)
	}
	if len(view.Forecast) != len(view.Buckets) {
		t.Errorf("len(Forecast) = %d, want %d", len(view.Forecast), len(view.Buckets))
	}
}

func TestCompute_DefaultMode(t *testing.T) {
	view := Compute(scenarioRecords(t), model.NewFilterCriteria("", nil), "")
	if view.Mode != model.Monthly {
		t.Errorf("Mode = %q, want monthly", view.Mode)
	}
	if len(view.Buckets) != 1 {
		t.Errorf("len(Buckets) = %d, want 1", len(view.Buckets))
	}
}

func TestCompute_Deterministic(t *testing.T) {
	records := mixedRecords(t)
	criteria := model.NewFilterCriteria("feb", nil)

	a := Compute(records, criteria, model.Weekly, WithRand(NewRand(9)))
	b := Compute(records, criteria, model.Weekly, WithRand(NewRand(9)))

	if len(a.Buckets) != len(b.Buckets) {
		t.Fatalf("bucket counts differ: %d vs %d", len(a.Buckets), len(b.Buckets))
	}
	for i := range a.Forecast {
		if a.Buckets[i].Label != b.Buckets[i].Label {
			t.Errorf("bucket %d label %q vs %q", i, a.Buckets[i].Label, b.Buckets[i].Label)
		}
		if !a.Forecast[i].ForecastSalesUSD.Equal(b.Forecast[i].ForecastSalesUSD) {
			t.Errorf("forecast %d differs for the same seed", i)
		}
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	records := mixedRecords(t)
	before := make([]model.TransactionRecord, len(records))
	copy(before, records)

	_ = Compute(records, model.NewFilterCriteria("Mar", []string{"A"}), model.Daily)

	for i := range records {
		if records[i].Date != before[i].Date || records[i].Agency != before[i].Agency || !records[i].SalesUSD.Equal(before[i].SalesUSD) {
			t.Fatalf("record %d changed: %+v -> %+v", i, before[i], records[i])
		}
	}
}
