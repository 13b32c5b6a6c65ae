package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/salesdash/internal/logger"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
)

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, s.snapshotStatus())
}

// computeView runs the pipeline for the query's filters. It writes the
// error response itself and returns false on failure.
func (s *Service) computeView(w http.ResponseWriter, r *http.Request) (model.DashboardView, bool) {
	records, loaded := s.currentRecords()
	if !loaded {
		WriteError(w, http.StatusServiceUnavailable, "no data set loaded yet")
		return model.DashboardView{}, false
	}

	q := r.URL.Query()
	criteria := model.NewFilterCriteria(q.Get("month"), agenciesParam(q))
	if err := criteria.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return model.DashboardView{}, false
	}

	mode := s.cfg.DefaultMode
	if v := q.Get("mode"); v != "" {
		m, err := model.ParseMode(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return model.DashboardView{}, false
		}
		mode = m
	}

	var opts []pipeline.Option
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "seed must be an unsigned integer")
			return model.DashboardView{}, false
		}
		opts = append(opts, pipeline.WithRand(pipeline.NewRand(seed)))
	}

	return pipeline.Compute(records, criteria, mode, opts...), true
}

// agenciesParam accepts ?agency=A&agency=B as well as ?agency=A,B.
func agenciesParam(q url.Values) []string {
	var out []string
	for _, v := range q["agency"] {
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				out = append(out, a)
			}
		}
	}
	return out
}

func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, ok := s.computeView(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

func (s *Service) handleTransactions(w http.ResponseWriter, r *http.Request) {
	view, ok := s.computeView(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"transactions": view.Transactions,
		"count":        len(view.Transactions),
	})
}

func (s *Service) handleJobs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	jobs := []model.ProcessedFile{}
	if s.jobs != nil {
		list, err := s.jobs.ListJobs(limit)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("listing processed files")
			WriteError(w, http.StatusInternalServerError, "failed to list processed files")
			return
		}
		if list != nil {
			jobs = list
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	WriteJSON(w, http.StatusOK, events)
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	applied, err := s.refresh(r.Context())
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"status":  s.snapshotStatus(),
	})
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	st := s.snapshotStatus()
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		State:     st.State,
		Snapshot:  st.Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}
