package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/storage"
	"github.com/theirongolddev/salesdash/internal/store"
	"github.com/theirongolddev/salesdash/internal/workbook"
)

type rawCall struct {
	bucket, object, contentType string
	size                        int
}

type fakeRaw struct {
	calls []rawCall
	err   error
}

func (f *fakeRaw) Upload(_ context.Context, bucket, object, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, rawCall{bucket, object, contentType, len(data)})
	return storage.GCSURI(bucket, object), nil
}

func dailyWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	rows := [][]any{
		{"Daily sales report"},
		{"Travels Agents Name", "US $ PAX", "US $ Amount", "NPR PAX", "NPR Amount"},
		{"A", 0, 0, 40, 291611.46},
		{"B", 12, 2198.24, 7, 51458.79},
		{"Total", 12, 2198.24, 47, 343070.25},
	}
	if err := f.SetSheetName("Sheet1", "01-Feb"); err != nil {
		t.Fatal(err)
	}
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("01-Feb", ref, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newProcessor(t *testing.T) (*Processor, *store.Cache, string) {
	t.Helper()
	cache, err := store.Open(filepath.Join(t.TempDir(), "salesdash.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	out := filepath.Join(t.TempDir(), "processed")
	return &Processor{
		Jobs: cache,
		Sink: storage.DirSink{Dir: out},
		Life: pipeline.NewLifecycle(),
		User: "ops",
	}, cache, out
}

func TestProcess(t *testing.T) {
	p, cache, out := newProcessor(t)
	raw := &fakeRaw{}
	p.Raw, p.RawBucket, p.RawPrefix = raw, "uploads", "raw"
	p.now = func() time.Time { return time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC) }

	data := dailyWorkbook(t)
	got, err := p.Process(context.Background(), "/home/ops/Daily Report.xlsx", data)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if s := p.Life.State(); s != model.StateReady {
		t.Errorf("state = %s, want %s", s, model.StateReady)
	}
	if got.RawURI != "gs://uploads/raw/2025-02-03/Daily Report.xlsx" {
		t.Errorf("RawURI = %q", got.RawURI)
	}
	if len(raw.calls) != 1 || raw.calls[0].size != len(data) || raw.calls[0].contentType != xlsxContentType {
		t.Errorf("raw uploads = %+v", raw.calls)
	}

	job := got.Job
	if job.Status != model.FileCompleted || job.OriginalFile != "Daily Report.xlsx" || job.User != "ops" {
		t.Errorf("job = %+v", job)
	}
	want := filepath.Join(out, workbook.OutputName(
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
	))
	if job.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", job.OutputPath, want)
	}

	csv, err := os.ReadFile(job.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	if len(lines) != 3 {
		t.Errorf("csv lines = %d, want 3 (header + 2 rows):\n%s", len(lines), csv)
	}

	latest, ok, err := cache.LatestJob(model.FileCompleted)
	if err != nil || !ok || latest.ID != job.ID {
		t.Errorf("LatestJob = %v, %v, %v; want %s", latest.ID, ok, err, job.ID)
	}
}

func TestProcess_RejectedName(t *testing.T) {
	p, cache, _ := newProcessor(t)

	_, err := p.Process(context.Background(), "Main Aug-25.xlsx", dailyWorkbook(t))
	if !errors.Is(err, workbook.ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if s := p.Life.State(); s != model.StateError {
		t.Errorf("state = %s, want %s", s, model.StateError)
	}
	jobs, err := cache.ListJobs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Errorf("jobs = %d, want none for a rejected name", len(jobs))
	}
}

func TestProcess_BadWorkbookMarksJobFailed(t *testing.T) {
	p, cache, _ := newProcessor(t)

	_, err := p.Process(context.Background(), "daily.xlsx", []byte("not a zip"))
	if err == nil {
		t.Fatal("expected error for unreadable workbook")
	}
	if s := p.Life.State(); s != model.StateError {
		t.Errorf("state = %s, want %s", s, model.StateError)
	}
	if p.Life.Err() == "" {
		t.Error("lifecycle error message is empty")
	}

	job, ok, err := cache.LatestJob("")
	if err != nil || !ok {
		t.Fatalf("LatestJob = %v, %v", ok, err)
	}
	if job.Status != model.FileError || job.Error == "" {
		t.Errorf("job = %+v, want status error with a message", job)
	}
}

func TestProcess_RawUploadFailure(t *testing.T) {
	p, cache, _ := newProcessor(t)
	p.Raw, p.RawBucket = &fakeRaw{err: errors.New("403")}, "uploads"

	if _, err := p.Process(context.Background(), "daily.xlsx", dailyWorkbook(t)); err == nil {
		t.Fatal("expected upload error")
	}
	if s := p.Life.State(); s != model.StateError {
		t.Errorf("state = %s, want %s", s, model.StateError)
	}
	if jobs, _ := cache.ListJobs(10); len(jobs) != 0 {
		t.Errorf("jobs = %d, want none when the upload fails", len(jobs))
	}
}
