package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"
)

const sampleCSV = "date,agency,pax_usd,sales_usd,pax_npr,sales_npr\n" +
	"01-Feb,A,0,0,40,291611.46\n" +
	"02-Feb,B,12,2198.24,7,51458.79\n"

type fakeLoader struct {
	mu    sync.Mutex
	data  map[string]string
	err   error
	calls []string
}

func (f *fakeLoader) Load(_ context.Context, location string) (*pipeline.LoadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, location)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.data[location]
	if !ok {
		return nil, errors.New("not found")
	}
	records, stats := source.Normalizer{}.Parse([]byte(body))
	return &pipeline.LoadResult{Records: records, Stats: stats, Location: location, FetchedAt: time.Now()}, nil
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs []model.ProcessedFile
}

func (f *fakeJobs) set(jobs ...model.ProcessedFile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = jobs
}

func (f *fakeJobs) LatestJob(status string) (model.ProcessedFile, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if status == "" || j.Status == status {
			return j, true, nil
		}
	}
	return model.ProcessedFile{}, false, nil
}

func (f *fakeJobs) ListJobs(int) ([]model.ProcessedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ProcessedFile(nil), f.jobs...), nil
}

func newTestService(t *testing.T, cfg Config, loader Loader, jobs JobStore) *Service {
	t.Helper()
	return New(cfg, loader, jobs, zerolog.Nop())
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Records: 10, Agencies: 3, Measures: model.Measures{SalesUSD: decimal.RequireFromString("100.50")}}
	curr := Snapshot{Records: 12, Agencies: 3, Measures: model.Measures{SalesUSD: decimal.RequireFromString("130.25")}}

	delta := diffSnapshots(prev, curr)
	if delta.Records != 2 {
		t.Fatalf("Records delta = %d, want 2", delta.Records)
	}
	if delta.Agencies != 0 {
		t.Fatalf("Agencies delta = %d, want 0", delta.Agencies)
	}
	if !delta.SalesUSD.Equal(decimal.RequireFromString("29.75")) {
		t.Fatalf("SalesUSD delta = %s, want 29.75", delta.SalesUSD)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("self diff not zero")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := newTestService(t, Config{EventsBuffer: 2}, &fakeLoader{}, nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestApplyDropsStaleToken(t *testing.T) {
	s := newTestService(t, Config{}, &fakeLoader{}, nil)

	stale := s.gate.Issue()
	_ = s.gate.Issue()

	records, _ := source.Normalizer{}.Parse([]byte(sampleCSV))
	if s.apply(stale, &pipeline.LoadResult{Records: records, Location: "old.csv"}) {
		t.Fatal("stale result applied")
	}
	if _, loaded := s.currentRecords(); loaded {
		t.Error("records published from a stale load")
	}
}

func TestPollFollowsProcessedFiles(t *testing.T) {
	loader := &fakeLoader{data: map[string]string{"gs://processed/feb.csv": sampleCSV}}
	jobs := &fakeJobs{}
	s := newTestService(t, Config{}, loader, jobs)
	ctx := context.Background()

	jobs.set(model.ProcessedFile{ID: "1", Status: model.FileProcessing, UpdatedAt: time.Now()})
	s.pollOnce(ctx)
	if got := s.life.State(); got != model.StateProcessing {
		t.Fatalf("State = %s, want processing", got)
	}
	if len(loader.calls) != 0 {
		t.Fatalf("loaded while processing: %v", loader.calls)
	}

	jobs.set(model.ProcessedFile{ID: "1", Status: model.FileCompleted, OutputPath: "gs://processed/feb.csv", UpdatedAt: time.Now().Add(time.Second)})
	s.pollOnce(ctx)
	st := s.snapshotStatus()
	if st.State != model.StateReady {
		t.Fatalf("State = %s, want ready (last error %q)", st.State, st.LastError)
	}
	if st.Summary.Records != 2 || st.Summary.Agencies != 2 {
		t.Errorf("Summary = %+v, want 2 records, 2 agencies", st.Summary)
	}
	if st.Source != "gs://processed/feb.csv" {
		t.Errorf("Source = %q", st.Source)
	}

	// Unchanged data emits no dataset event.
	s.pollOnce(ctx)
	s.mu.RLock()
	var datasets, snapshots, states int
	for _, ev := range s.events {
		switch ev.Type {
		case EventDataset:
			datasets++
		case EventSnapshot:
			snapshots++
		case EventState:
			states++
		}
	}
	s.mu.RUnlock()
	if snapshots != 1 || datasets != 0 {
		t.Errorf("events: %d snapshot, %d dataset; want 1, 0", snapshots, datasets)
	}
	if states != 2 {
		t.Errorf("state events = %d, want 2 (processing, ready)", states)
	}
}

func TestPollRecoversAfterFailedFile(t *testing.T) {
	loader := &fakeLoader{data: map[string]string{"gs://processed/mar.csv": sampleCSV}}
	jobs := &fakeJobs{}
	s := newTestService(t, Config{}, loader, jobs)
	ctx := context.Background()
	t0 := time.Now()

	jobs.set(model.ProcessedFile{ID: "1", Status: model.FileError, Error: "bad sheet", UpdatedAt: t0})
	s.pollOnce(ctx)
	if got := s.life.State(); got != model.StateError {
		t.Fatalf("State = %s, want error", got)
	}

	// The replacement upload completes before the next poll.
	jobs.set(model.ProcessedFile{ID: "2", Status: model.FileCompleted, OutputPath: "gs://processed/mar.csv", UpdatedAt: t0.Add(time.Second)})
	s.pollOnce(ctx)
	st := s.snapshotStatus()
	if st.State != model.StateReady {
		t.Fatalf("State = %s, want ready (last error %q)", st.State, st.LastError)
	}
	if st.Summary.Records != 2 {
		t.Errorf("Summary.Records = %d, want 2", st.Summary.Records)
	}
}

func TestLoadFailureKeepsPriorData(t *testing.T) {
	loader := &fakeLoader{data: map[string]string{"sales.csv": sampleCSV}}
	s := newTestService(t, Config{Source: "sales.csv"}, loader, nil)
	ctx := context.Background()

	s.pollOnce(ctx)
	loader.mu.Lock()
	loader.err = errors.New("connection reset")
	loader.mu.Unlock()
	s.pollOnce(ctx)

	st := s.snapshotStatus()
	if st.Summary.Records != 2 {
		t.Errorf("Records = %d, want prior 2", st.Summary.Records)
	}
	if !strings.Contains(st.LastError, "connection reset") {
		t.Errorf("LastError = %q", st.LastError)
	}
	if st.State != model.StateReady {
		t.Errorf("State = %s, want ready", st.State)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	loader := &fakeLoader{data: map[string]string{"sales.csv": sampleCSV}}
	s := newTestService(t, Config{Source: "sales.csv"}, loader, &fakeJobs{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	if code := getJSON(t, srv.URL+"/v1/dashboard", nil); code != http.StatusServiceUnavailable {
		t.Errorf("before load: status = %d, want 503", code)
	}

	s.pollOnce(context.Background())

	var view model.DashboardView
	if code := getJSON(t, srv.URL+"/v1/dashboard?agency=A&seed=3", &view); code != http.StatusOK {
		t.Fatalf("dashboard status = %d", code)
	}
	if view.Totals.AgenciesCount != 1 || view.Totals.Records != 1 {
		t.Errorf("Totals = %+v, want 1 agency, 1 record", view.Totals)
	}
	if len(view.Buckets) != 1 || view.Buckets[0].Label != "Feb" {
		t.Errorf("Buckets = %+v", view.Buckets)
	}
	if len(view.AgencyOptions) != 2 {
		t.Errorf("AgencyOptions = %v", view.AgencyOptions)
	}

	var all model.DashboardView
	getJSON(t, srv.URL+"/v1/dashboard?mode=daily&month=FEB", &all)
	if len(all.Buckets) != 2 || all.Mode != model.Daily {
		t.Errorf("daily buckets = %d, mode %s", len(all.Buckets), all.Mode)
	}
	if !all.Totals.SalesNPR.Equal(decimal.RequireFromString("343070.25")) {
		t.Errorf("SalesNPR = %s", all.Totals.SalesNPR)
	}

	for _, q := range []string{"mode=hourly", "month=Foo", "seed=-1"} {
		if code := getJSON(t, srv.URL+"/v1/dashboard?"+q, nil); code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, code)
		}
	}

	var tx struct {
		Count int `json:"count"`
	}
	getJSON(t, srv.URL+"/v1/transactions?agency=A,B", &tx)
	if tx.Count != 2 {
		t.Errorf("transactions count = %d, want 2", tx.Count)
	}

	var jobs struct {
		Count int `json:"count"`
	}
	if code := getJSON(t, srv.URL+"/v1/jobs", &jobs); code != http.StatusOK || jobs.Count != 0 {
		t.Errorf("jobs: status %d count %d", code, jobs.Count)
	}

	resp, err := http.Post(srv.URL+"/v1/refresh", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("refresh status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var st Status
	getJSON(t, srv.URL+"/v1/status", &st)
	if st.State != model.StateReady || st.PollCount != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestStreamSendsSnapshot(t *testing.T) {
	loader := &fakeLoader{data: map[string]string{"sales.csv": sampleCSV}}
	s := newTestService(t, Config{Source: "sales.csv"}, loader, nil)
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatal(err)
	}
	if strings.TrimSpace(line) != "event: snapshot" {
		t.Errorf("first line = %q", line)
	}
}
