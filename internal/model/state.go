package model

import (
	"fmt"
	"time"
)

// PipelineState tracks the upload -> remote processing -> ready lifecycle
// that gates when the dashboard pipeline may run.
type PipelineState string

const (
	StateIdle       PipelineState = "idle"
	StateUploading  PipelineState = "uploading"
	StateProcessing PipelineState = "processing"
	StateReady      PipelineState = "ready"
	StateError      PipelineState = "error"
)

var transitions = map[PipelineState][]PipelineState{
	StateIdle:       {StateUploading, StateProcessing, StateReady},
	StateUploading:  {StateProcessing, StateError},
	StateProcessing: {StateReady, StateError},
	StateReady:      {StateReady, StateUploading, StateProcessing},
	StateError:      {StateUploading, StateProcessing},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to PipelineState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition returns to, or an error if the move is not allowed.
func Transition(from, to PipelineState) (PipelineState, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("invalid state transition %s -> %s", from, to)
	}
	return to, nil
}

// Processed-file status values published by the normalization worker.
const (
	FileProcessing = "processing"
	FileCompleted  = "completed"
	FileError      = "error"
)

// ProcessedFile is the status record of one uploaded workbook.
type ProcessedFile struct {
	ID           string    `json:"id"`
	OriginalFile string    `json:"original_file"`
	OutputPath   string    `json:"output_path,omitempty"`
	User         string    `json:"user,omitempty"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// State maps the file status onto the pipeline lifecycle.
func (f ProcessedFile) State() PipelineState {
	switch f.Status {
	case FileCompleted:
		return StateReady
	case FileError:
		return StateError
	default:
		return StateProcessing
	}
}
