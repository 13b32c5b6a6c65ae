// Package ingest runs the upload flow: accept a workbook, record a
// processed file, normalize it to CSV and publish the result.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/salesdash/internal/logger"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/storage"
	"github.com/theirongolddev/salesdash/internal/workbook"
)

// JobRecorder persists processed-file status.
type JobRecorder interface {
	CreateJob(originalFile, user string) (model.ProcessedFile, error)
	CompleteJob(id, outputPath string) error
	FailJob(id string, reason error) error
	GetJob(id string) (model.ProcessedFile, error)
}

// RawStore keeps the original workbook before it is normalized.
type RawStore interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) (string, error)
}

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv"
)

// Processor drives one upload through the pipeline lifecycle.
// Raw and RawBucket are optional; when unset the workbook is not archived.
type Processor struct {
	Jobs       JobRecorder
	Sink       storage.Sink
	Normalizer workbook.Normalizer
	Life       *pipeline.Lifecycle

	Raw       RawStore
	RawBucket string
	RawPrefix string
	User      string

	now func() time.Time
}

// Outcome describes a finished upload.
type Outcome struct {
	Job    model.ProcessedFile
	RawURI string
	Result *workbook.Result
}

// Process uploads and normalizes the workbook data named filename. A
// rejected name fails before any state change past Uploading; every later
// failure marks the processed file as errored.
func (p *Processor) Process(ctx context.Context, filename string, data []byte) (*Outcome, error) {
	log := logger.FromContext(ctx).With().Str("file", filepath.Base(filename)).Logger()
	life := p.Life
	if life == nil {
		life = pipeline.NewLifecycle()
	}

	if err := life.Set(model.StateUploading); err != nil {
		return nil, err
	}
	if err := workbook.Accept(filepath.Base(filename)); err != nil {
		_ = life.Fail(err)
		return nil, err
	}

	out := &Outcome{}
	if p.Raw != nil && p.RawBucket != "" {
		object := storage.ObjectName(p.RawPrefix, filename, p.clock())
		uri, err := p.Raw.Upload(ctx, p.RawBucket, object, xlsxContentType, data)
		if err != nil {
			_ = life.Fail(err)
			return nil, fmt.Errorf("uploading workbook: %w", err)
		}
		out.RawURI = uri
		log.Info().Str("uri", uri).Msg("workbook uploaded")
	}

	job, err := p.Jobs.CreateJob(filepath.Base(filename), p.User)
	if err != nil {
		_ = life.Fail(err)
		return nil, err
	}
	if err := life.Set(model.StateProcessing); err != nil {
		return nil, err
	}
	log = log.With().Str("job", job.ID).Logger()
	log.Info().Msg("processing workbook")

	res, err := p.Normalizer.Normalize(bytes.NewReader(data))
	if err != nil {
		return nil, p.fail(log, life, job.ID, fmt.Errorf("normalizing workbook: %w", err))
	}
	logResult(log, res)

	location, err := p.Sink.Put(ctx, res.Name, csvContentType, res.CSV)
	if err != nil {
		return nil, p.fail(log, life, job.ID, fmt.Errorf("publishing csv: %w", err))
	}
	if err := p.Jobs.CompleteJob(job.ID, location); err != nil {
		return nil, p.fail(log, life, job.ID, err)
	}
	if err := life.Set(model.StateReady); err != nil {
		return nil, err
	}

	if out.Job, err = p.Jobs.GetJob(job.ID); err != nil {
		return nil, err
	}
	out.Result = res
	log.Info().Str("output", location).Int("rows", res.Rows).Msg("workbook processed")
	return out, nil
}

func (p *Processor) fail(log zerolog.Logger, life *pipeline.Lifecycle, id string, cause error) error {
	log.Error().Err(cause).Msg("processing failed")
	if err := p.Jobs.FailJob(id, cause); err != nil {
		log.Warn().Err(err).Msg("recording failure")
	}
	_ = life.Fail(cause)
	return cause
}

func (p *Processor) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func logResult(log zerolog.Logger, res *workbook.Result) {
	ev := log.Info().
		Int("sheets", len(res.Sheets)).
		Int("rows", res.Rows).
		Int("dropped", res.Dropped)
	if len(res.Skipped) > 0 {
		ev = ev.Strs("skipped", res.Skipped)
	}
	ev.Msg("workbook normalized")
	if res.BadNumbers > 0 {
		log.Warn().Int("cells", res.BadNumbers).Msg("unparseable amounts written as zero")
	}
}
