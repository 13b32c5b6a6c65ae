package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/theirongolddev/salesdash/internal/model"
)

func TestLifecycle_UploadFlow(t *testing.T) {
	l := NewLifecycle()
	steps := []model.PipelineState{model.StateUploading, model.StateProcessing, model.StateReady, model.StateReady}
	for _, s := range steps {
		if err := l.Set(s); err != nil {
			t.Fatalf("Set(%s): %v", s, err)
		}
	}
	if err := l.Set(model.StateError); err == nil {
		t.Error("Ready -> Error should be rejected")
	}
	if l.State() != model.StateReady {
		t.Errorf("State = %s, want ready", l.State())
	}
}

func TestLifecycle_Fail(t *testing.T) {
	l := NewLifecycle()
	if err := l.Fail(errors.New("boom")); err == nil {
		t.Error("Idle -> Error should be rejected")
	}
	_ = l.Set(model.StateUploading)
	if err := l.Fail(errors.New("bucket not found")); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if l.State() != model.StateError || l.Err() != "bucket not found" {
		t.Errorf("State = %s, Err = %q", l.State(), l.Err())
	}
	_ = l.Set(model.StateUploading)
	if l.Err() != "" {
		t.Errorf("Err not cleared on retry: %q", l.Err())
	}
}

func TestLifecycle_Observe(t *testing.T) {
	l := NewLifecycle()
	t0 := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	job := model.ProcessedFile{ID: "a", Status: model.FileProcessing, UpdatedAt: t0}
	if l.Observe(job) {
		t.Error("processing file reported as completed")
	}
	if l.State() != model.StateProcessing || l.Loading() {
		t.Errorf("State = %s, Loading = %v; want processing, false", l.State(), l.Loading())
	}

	job.Status, job.UpdatedAt = model.FileCompleted, t0.Add(time.Minute)
	if !l.Observe(job) {
		t.Error("completed file not reported")
	}
	if !l.Loading() {
		t.Error("completed file should be loadable")
	}
	if l.Observe(job) {
		t.Error("same completed file reported twice")
	}
	if err := l.Set(model.StateReady); err != nil {
		t.Fatalf("Set(ready): %v", err)
	}

	failed := model.ProcessedFile{ID: "b", Status: model.FileError, Error: "bad sheet", UpdatedAt: t0.Add(2 * time.Minute)}
	l.Observe(failed)
	if l.State() != model.StateError || l.Err() != "bad sheet" {
		t.Errorf("State = %s, Err = %q; want error, bad sheet", l.State(), l.Err())
	}
	if !l.Loading() {
		t.Error("prior data should stay loadable in Error")
	}
}

func TestLifecycle_CompletedAfterError(t *testing.T) {
	l := NewLifecycle()
	t0 := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	l.Observe(model.ProcessedFile{ID: "a", Status: model.FileError, Error: "bad sheet", UpdatedAt: t0})
	if l.State() != model.StateError {
		t.Fatalf("State = %s, want error", l.State())
	}

	// The next file finished between two polls; no processing record was seen.
	done := model.ProcessedFile{ID: "b", Status: model.FileCompleted, UpdatedAt: t0.Add(time.Minute)}
	if !l.Observe(done) {
		t.Fatal("completed file not reported")
	}
	if err := l.Set(model.StateReady); err != nil {
		t.Fatalf("Set(ready): %v", err)
	}
	if l.State() != model.StateReady || l.Err() != "" {
		t.Errorf("State = %s, Err = %q; want ready, empty", l.State(), l.Err())
	}
}
