package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
)

type fakeLoader struct {
	records []model.TransactionRecord
	err     error
	calls   []string
}

func (f *fakeLoader) Load(_ context.Context, loc string) (*pipeline.LoadResult, error) {
	f.calls = append(f.calls, loc)
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.LoadResult{Records: f.records, Location: loc, FetchedAt: time.Now()}, nil
}

type fakeJobs struct{ job model.ProcessedFile }

func (f fakeJobs) LatestJob(string) (model.ProcessedFile, bool, error) {
	return f.job, f.job.ID != "", nil
}

func rec(day int, month time.Month, agency string, usd, npr float64) model.TransactionRecord {
	d := time.Date(2025, month, day, 0, 0, 0, 0, time.UTC)
	return model.TransactionRecord{
		Date:      d.Format("02-Jan"),
		Day:       d,
		DateValid: true,
		Agency:    agency,
		Measures: model.Measures{
			PaxUSD:   decimal.NewFromInt(1),
			SalesUSD: decimal.NewFromFloat(usd),
			PaxNPR:   decimal.NewFromInt(2),
			SalesNPR: decimal.NewFromFloat(npr),
		},
	}
}

func testRecords() []model.TransactionRecord {
	return []model.TransactionRecord{
		rec(1, time.February, "A", 100, 13000),
		rec(3, time.February, "B", 250, 1000),
		rec(2, time.March, "A", 50, 7000),
		rec(20, time.March, "C", 10, 500),
	}
}

func newTestApp(t *testing.T, loader *fakeLoader) App {
	t.Helper()
	seed := uint64(7)
	a := NewApp(Options{
		Source: "sales.csv",
		Config: config.DefaultConfig(),
		Loader: loader,
		Seed:   &seed,
	})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return m.(App)
}

// loaded runs one load through the gate like Init would.
func loaded(t *testing.T, a App) App {
	t.Helper()
	msg := a.loadCmd(a.gate.Issue())()
	m, _ := a.Update(msg)
	return m.(App)
}

func press(t *testing.T, a App, key string) App {
	t.Helper()
	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return m.(App)
}

func TestLoadComputesView(t *testing.T) {
	loader := &fakeLoader{records: testRecords()}
	a := loaded(t, newTestApp(t, loader))

	if !a.loaded || a.loading {
		t.Fatalf("loaded=%v loading=%v", a.loaded, a.loading)
	}
	if len(loader.calls) != 1 || loader.calls[0] != "sales.csv" {
		t.Errorf("loader calls = %v", loader.calls)
	}
	if a.view.Totals.Records != 4 || len(a.view.Buckets) != 2 {
		t.Errorf("totals=%d buckets=%d, want 4 and 2", a.view.Totals.Records, len(a.view.Buckets))
	}
	if got := a.life.State(); got != model.StateReady {
		t.Errorf("state = %s, want ready", got)
	}
	if len(a.agencies) != 3 || a.agencies[0].Agency != "B" {
		t.Errorf("agencies = %+v, want B first by USD sales", a.agencies)
	}
}

func TestStaleLoadIsDropped(t *testing.T) {
	a := newTestApp(t, &fakeLoader{})
	stale := a.gate.Issue()
	current := a.gate.Issue()

	m, _ := a.Update(dataLoadedMsg{token: stale, res: &pipeline.LoadResult{Records: testRecords()}})
	a = m.(App)
	if a.loaded || len(a.records) != 0 {
		t.Fatal("stale load was applied")
	}

	m, _ = a.Update(dataLoadedMsg{token: current, res: &pipeline.LoadResult{Records: testRecords()[:1]}})
	a = m.(App)
	if !a.loaded || len(a.records) != 1 {
		t.Fatalf("current load not applied: loaded=%v records=%d", a.loaded, len(a.records))
	}
}

func TestLoadErrorKeepsPreviousData(t *testing.T) {
	loader := &fakeLoader{records: testRecords()}
	a := loaded(t, newTestApp(t, loader))

	loader.err = errors.New("connection refused")
	a = loaded(t, a)

	if len(a.records) != 4 {
		t.Errorf("records = %d, want previous 4 kept", len(a.records))
	}
	if !strings.Contains(a.loadErr, "connection refused") {
		t.Errorf("loadErr = %q", a.loadErr)
	}
}

func TestKeysChangeSelection(t *testing.T) {
	a := loaded(t, newTestApp(t, &fakeLoader{records: testRecords()}))

	a = press(t, a, "v")
	if a.mode != model.Weekly || a.view.Mode != model.Weekly {
		t.Errorf("after v: mode=%s view=%s, want weekly", a.mode, a.view.Mode)
	}

	a = press(t, a, "c")
	if a.currency != model.CurrencyNPR {
		t.Errorf("after c: currency=%s, want NPR", a.currency)
	}
	if a.agencies[0].Agency != "A" {
		t.Errorf("top NPR agency = %s, want A", a.agencies[0].Agency)
	}

	for _, want := range []string{"Feb", "Mar", model.All} {
		a = press(t, a, "m")
		if a.criteria.Month != want {
			t.Errorf("month = %s, want %s", a.criteria.Month, want)
		}
	}

	a = press(t, a, "t")
	if a.activeTab != 1 {
		t.Errorf("after t: tab=%d, want 1", a.activeTab)
	}
	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := m.(App).activeTab; got != 2 {
		t.Errorf("after right: tab=%d, want 2", got)
	}
}

func TestSeededForecastIsStable(t *testing.T) {
	a := loaded(t, newTestApp(t, &fakeLoader{records: testRecords()}))
	first := a.view.Forecast

	a = press(t, a, "c")
	a = press(t, a, "c")
	for i, p := range a.view.Forecast {
		if !p.ForecastSalesUSD.Equal(first[i].ForecastSalesUSD) {
			t.Errorf("bucket %d forecast changed across recomputes: %s vs %s",
				i, p.ForecastSalesUSD, first[i].ForecastSalesUSD)
		}
	}
}

func TestCompletedJobTriggersReload(t *testing.T) {
	loader := &fakeLoader{records: testRecords()}
	a := loaded(t, newTestApp(t, loader))

	job := model.ProcessedFile{ID: "j1", Status: model.FileCompleted, UpdatedAt: time.Now()}
	m, cmd := a.Update(jobCheckedMsg{job: job, ok: true})
	a = m.(App)
	if !a.loading || cmd == nil {
		t.Fatalf("loading=%v cmd=%v, want a reload", a.loading, cmd)
	}

	// The same record again is not news.
	a.loading = false
	m, _ = a.Update(jobCheckedMsg{job: job, ok: true})
	if m.(App).loading {
		t.Error("unchanged job triggered another reload")
	}
}

func TestProcessingJobShowsInState(t *testing.T) {
	a := newTestApp(t, &fakeLoader{})
	a.jobs = fakeJobs{}

	job := model.ProcessedFile{ID: "j2", Status: model.FileProcessing, UpdatedAt: time.Now()}
	m, _ := a.Update(jobCheckedMsg{job: job, ok: true})
	a = m.(App)
	if got := a.life.State(); got != model.StateProcessing {
		t.Errorf("state = %s, want processing", got)
	}
	if a.life.Loading() {
		t.Error("loads should wait while the newest workbook is processing")
	}
}

func TestNextMonth(t *testing.T) {
	months := []string{"Jan", "Feb"}
	tests := []struct {
		current string
		months  []string
		want    string
	}{
		{model.All, months, "Jan"},
		{"Jan", months, "Feb"},
		{"Feb", months, model.All},
		{"Dec", months, model.All},
		{model.All, nil, model.All},
	}
	for _, tt := range tests {
		if got := nextMonth(tt.current, tt.months); got != tt.want {
			t.Errorf("nextMonth(%q, %v) = %q, want %q", tt.current, tt.months, got, tt.want)
		}
	}
}

func TestViewFillsTerminal(t *testing.T) {
	a := loaded(t, newTestApp(t, &fakeLoader{records: testRecords()}))

	for tab := range 3 {
		a.activeTab = tab
		for _, mode := range model.Modes {
			a.mode = mode
			a.recompute()
			out := a.View()
			if got := lipgloss.Height(out); got != 40 {
				t.Errorf("tab %d mode %s: height = %d, want 40", tab, mode, got)
			}
		}
	}
}

func TestViewBeforeLoad(t *testing.T) {
	a := newTestApp(t, &fakeLoader{})
	if out := a.View(); !strings.Contains(out, "salesdash") {
		t.Errorf("loading view missing title:\n%s", out)
	}

	m, _ := a.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if out := m.(App).View(); !strings.Contains(out, "too narrow") {
		t.Errorf("narrow view = %q", out)
	}
}
