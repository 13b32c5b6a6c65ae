package pipeline

import (
	"sync"
	"time"

	"github.com/theirongolddev/salesdash/internal/model"
)

// Lifecycle tracks the pipeline state of one dashboard host and the
// newest processed file it has observed. It is safe for concurrent use.
type Lifecycle struct {
	mu      sync.Mutex
	state   model.PipelineState
	jobID   string
	updated time.Time
	pending bool // newest observed file is still being normalized
	err     string
}

// NewLifecycle starts in Idle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: model.StateIdle}
}

// State returns the current state.
func (l *Lifecycle) State() model.PipelineState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the message recorded with the last move to Error.
func (l *Lifecycle) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Set moves to the given state if the transition is legal. Staying in
// the current state is always allowed.
func (l *Lifecycle) Set(to model.PipelineState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setLocked(to)
}

// Fail moves to Error and records why.
func (l *Lifecycle) Fail(reason error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.setLocked(model.StateError); err != nil {
		return err
	}
	if reason != nil {
		l.err = reason.Error()
	}
	return nil
}

func (l *Lifecycle) setLocked(to model.PipelineState) error {
	if l.state == to {
		return nil
	}
	next, err := model.Transition(l.state, to)
	if err != nil {
		return err
	}
	l.state = next
	if next != model.StateError {
		l.err = ""
	}
	return nil
}

// Observe folds the newest processed file into the state. It reports
// whether the file is newly completed, meaning its output should be
// fetched. Illegal moves leave the state unchanged.
func (l *Lifecycle) Observe(job model.ProcessedFile) (completed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if job.ID == l.jobID && job.UpdatedAt.Equal(l.updated) {
		return false
	}
	l.jobID, l.updated = job.ID, job.UpdatedAt
	l.pending = job.State() == model.StateProcessing

	switch job.State() {
	case model.StateProcessing:
		_ = l.setLocked(model.StateProcessing)
	case model.StateError:
		if l.state == model.StateIdle || l.state == model.StateReady {
			// Watchers never saw the upload; route through Processing.
			_ = l.setLocked(model.StateProcessing)
		}
		_ = l.setLocked(model.StateError)
		l.err = job.Error
	case model.StateReady:
		if l.state == model.StateError {
			// The file finished between polls; pass through Processing so
			// the following Set(Ready) is a legal move.
			_ = l.setLocked(model.StateProcessing)
		}
		return true
	}
	return false
}

// Loading reports whether a fetch may run now: not during an upload and
// not while the newest observed workbook is still being normalized.
func (l *Lifecycle) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.pending && l.state != model.StateUploading
}
