// Package server runs the long-lived dashboard service: it follows the
// processed-file store, reloads the data set on a cron schedule, and
// serves dashboard JSON and change events over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
)

// Config controls the service runtime behavior.
type Config struct {
	Source       string // fixed location; empty follows processed files
	OutputDir    string
	Addr         string
	PollSchedule string
	EventsBuffer int
	DefaultMode  model.Mode
}

// Loader fetches and normalizes a data set.
type Loader interface {
	Load(ctx context.Context, location string) (*pipeline.LoadResult, error)
}

// JobStore exposes processed-file status records.
type JobStore interface {
	LatestJob(status string) (model.ProcessedFile, bool, error)
	ListJobs(limit int) ([]model.ProcessedFile, error)
}

// Snapshot summarizes the loaded data set for status and event payloads.
type Snapshot struct {
	At        time.Time `json:"at"`
	Location  string    `json:"location"`
	Records   int       `json:"records"`
	Agencies  int       `json:"agencies"`
	FromCache bool      `json:"from_cache"`
	model.Measures
}

// Delta captures the change between two loaded data sets.
type Delta struct {
	Records  int `json:"records"`
	Agencies int `json:"agencies"`
	model.Measures
}

func (d Delta) isZero() bool {
	return d.Records == 0 &&
		d.Agencies == 0 &&
		d.PaxUSD.IsZero() &&
		d.SalesUSD.IsZero() &&
		d.PaxNPR.IsZero() &&
		d.SalesNPR.IsZero()
}

// Event types.
const (
	EventSnapshot = "snapshot"
	EventDataset  = "dataset"
	EventState    = "state"
)

// Event is emitted when the data set or the pipeline state changes.
type Event struct {
	ID        int64               `json:"id"`
	Type      string              `json:"type"`
	Timestamp time.Time           `json:"timestamp"`
	State     model.PipelineState `json:"state"`
	Snapshot  Snapshot            `json:"snapshot"`
	Delta     Delta               `json:"delta"`
	Error     string              `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time           `json:"started_at"`
	LastPollAt      time.Time           `json:"last_poll_at"`
	LastLoadAt      time.Time           `json:"last_load_at"`
	PollSchedule    string              `json:"poll_schedule"`
	PollCount       int64               `json:"poll_count"`
	State           model.PipelineState `json:"state"`
	Source          string              `json:"source,omitempty"`
	Summary         Snapshot            `json:"summary"`
	LastError       string              `json:"last_error,omitempty"`
	EventCount      int                 `json:"event_count"`
	SubscriberCount int                 `json:"subscriber_count"`
}

// Service provides the server runtime and HTTP API.
type Service struct {
	cfg    Config
	loader Loader
	jobs   JobStore
	life   *pipeline.Lifecycle
	gate   pipeline.Gate
	log    zerolog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	lastLoadAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	records     []model.TransactionRecord
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service. jobs may be nil when no store is available.
func New(cfg Config, loader Loader, jobs JobStore, log zerolog.Logger) *Service {
	if cfg.PollSchedule == "" {
		cfg.PollSchedule = "@every 15s"
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = model.Monthly
	}

	return &Service{
		cfg:       cfg,
		loader:    loader,
		jobs:      jobs,
		life:      pipeline.NewLifecycle(),
		log:       log,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API wrapped in the standard middleware.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /v1/transactions", s.handleTransactions)
	mux.HandleFunc("GET /v1/jobs", s.handleJobs)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("POST /v1/refresh", s.handleRefresh)

	return Chain(mux, RequestID, RequestLogger(s.log), Recovery(s.log), CORS)
}

// Run serves HTTP and polls on the cron schedule until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.cfg.PollSchedule, func() { s.pollOnce(ctx) }); err != nil {
		return fmt.Errorf("poll schedule %q: %w", s.cfg.PollSchedule, err)
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Str("schedule", s.cfg.PollSchedule).Msg("salesdash server listening")

	// Seed the data set so status is useful immediately.
	s.pollOnce(ctx)
	c.Start()
	defer func() { <-c.Stop().Done() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	s.mu.Lock()
	s.lastPollAt = time.Now()
	s.pollCount++
	s.mu.Unlock()

	before := s.life.State()
	if s.jobs != nil {
		job, ok, err := s.jobs.LatestJob("")
		if err != nil {
			s.recordError(fmt.Errorf("reading processed files: %w", err))
			return
		}
		if ok && s.life.Observe(job) {
			s.log.Info().Str("file", job.OriginalFile).Str("output", job.OutputPath).Msg("processed file completed")
		}
	}
	s.announceState(before)

	if !s.life.Loading() {
		return
	}
	if _, err := s.refresh(ctx); err != nil {
		s.log.Warn().Err(err).Msg("poll load failed")
	}
}

// refresh resolves the source and loads it under a fresh gate token. It
// reports whether the result was applied; a superseded load is dropped
// silently.
func (s *Service) refresh(ctx context.Context) (bool, error) {
	var jobs pipeline.LatestJobFinder
	if s.jobs != nil {
		jobs = s.jobs
	}
	loc, err := pipeline.ResolveLocation("", s.cfg.Source, jobs, s.cfg.OutputDir)
	if err != nil {
		s.recordError(err)
		return false, err
	}

	tok := s.gate.Issue()
	res, err := s.loader.Load(ctx, loc)
	if !s.gate.IsCurrent(tok) {
		s.log.Debug().Uint64("token", uint64(tok)).Str("source", loc).Msg("discarding stale load")
		return false, nil
	}
	if err != nil {
		// Prior results stay in place.
		s.recordError(err)
		return false, err
	}
	return s.apply(tok, res), nil
}

func (s *Service) apply(tok pipeline.Token, res *pipeline.LoadResult) bool {
	totals, _ := pipeline.Aggregate(res.Records, model.Monthly)
	now := time.Now()
	snap := Snapshot{
		At:        now,
		Location:  res.Location,
		Records:   totals.Records,
		Agencies:  totals.AgenciesCount,
		FromCache: res.FromCache,
		Measures:  totals.Measures,
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	if !s.gate.IsCurrent(tok) {
		s.mu.Unlock()
		return false
	}
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.records = res.Records
	s.lastLoadAt = now
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() || prev.Location != snap.Location {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventDataset, Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	before := s.life.State()
	if err := s.life.Set(model.StateReady); err != nil {
		s.log.Warn().Err(err).Msg("pipeline state not updated")
	}
	if publish {
		ev.State = s.life.State()
		s.publishEvent(ev)
		s.log.Info().
			Str("source", snap.Location).
			Int("records", snap.Records).
			Bool("cached", snap.FromCache).
			Msg("data set loaded")
	}
	s.announceState(before)
	return true
}

func (s *Service) announceState(before model.PipelineState) {
	now := s.life.State()
	if now == before {
		return
	}
	s.log.Info().Str("from", string(before)).Str("to", string(now)).Msg("pipeline state")

	s.mu.Lock()
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      EventState,
		Timestamp: time.Now(),
		State:     now,
		Snapshot:  s.snapshot,
		Error:     s.life.Err(),
	}
	s.mu.Unlock()
	s.publishEvent(ev)
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Records:  curr.Records - prev.Records,
		Agencies: curr.Agencies - prev.Agencies,
		Measures: model.Measures{
			PaxUSD:   curr.PaxUSD.Sub(prev.PaxUSD),
			SalesUSD: curr.SalesUSD.Sub(prev.SalesUSD),
			PaxNPR:   curr.PaxNPR.Sub(prev.PaxNPR),
			SalesNPR: curr.SalesNPR.Sub(prev.SalesNPR),
		},
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	state, stateErr := s.life.State(), s.life.Err()

	s.mu.RLock()
	defer s.mu.RUnlock()

	lastErr := s.lastError
	if lastErr == "" && state == model.StateError {
		lastErr = stateErr
	}
	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		LastLoadAt:      s.lastLoadAt,
		PollSchedule:    s.cfg.PollSchedule,
		PollCount:       s.pollCount,
		State:           state,
		Source:          s.snapshot.Location,
		Summary:         s.snapshot,
		LastError:       lastErr,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) currentRecords() ([]model.TransactionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.hasSnapshot
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
