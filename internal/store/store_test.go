package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDatasetRoundTrip(t *testing.T) {
	c := openTestCache(t)

	if _, ok, err := c.GetDataset("/data/a.csv"); err != nil || ok {
		t.Fatalf("GetDataset on empty cache = %v, %v; want false, nil", ok, err)
	}

	day := time.Date(2025, time.February, 2, 0, 0, 0, 0, time.UTC)
	records := []model.TransactionRecord{
		{Date: "02-Feb", Day: day, DateValid: true, Agency: "B", Measures: model.Measures{
			PaxUSD:   decimal.NewFromInt(12),
			SalesUSD: decimal.RequireFromString("2198.24"),
			PaxNPR:   decimal.NewFromInt(7),
			SalesNPR: decimal.RequireFromString("51458.79"),
		}},
		{Date: "bad", Day: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), Agency: "C"},
	}
	ds := Dataset{MtimeNs: 42, SizeBytes: 100, Year: 2025, FetchedAt: day}
	if err := c.SaveDataset("/data/a.csv", ds, records); err != nil {
		t.Fatalf("SaveDataset: %v", err)
	}

	got, ok, err := c.GetDataset("/data/a.csv")
	if err != nil || !ok {
		t.Fatalf("GetDataset = %v, %v; want true, nil", ok, err)
	}
	if got.MtimeNs != 42 || got.SizeBytes != 100 || got.Year != 2025 {
		t.Errorf("Dataset = %+v, want mtime 42 size 100 year 2025", got)
	}
	if !got.FetchedAt.Equal(day) {
		t.Errorf("FetchedAt = %s, want %s", got.FetchedAt, day)
	}

	loaded, err := c.LoadRecords("/data/a.csv")
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(loaded))
	}
	if !loaded[0].SalesUSD.Equal(records[0].SalesUSD) || !loaded[0].SalesNPR.Equal(records[0].SalesNPR) {
		t.Errorf("sales = %s/%s, want 2198.24/51458.79", loaded[0].SalesUSD, loaded[0].SalesNPR)
	}
	if !loaded[0].Day.Equal(day) || !loaded[0].DateValid {
		t.Errorf("Day = %s valid=%v, want %s valid=true", loaded[0].Day, loaded[0].DateValid, day)
	}
	if loaded[1].DateValid || loaded[1].Agency != "C" {
		t.Errorf("second record = %+v, want agency C with invalid date", loaded[1])
	}

	// Saving again replaces the record set.
	if err := c.SaveDataset("/data/a.csv", ds, records[:1]); err != nil {
		t.Fatalf("SaveDataset (replace): %v", err)
	}
	n, err := c.RecordCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("RecordCount = %d, want 1", n)
	}

	if err := c.DeleteDataset("/data/a.csv"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.GetDataset("/data/a.csv"); ok {
		t.Error("dataset still present after DeleteDataset")
	}
}

func TestJobLifecycle(t *testing.T) {
	c := openTestCache(t)

	if _, ok, err := c.LatestJob(""); err != nil || ok {
		t.Fatalf("LatestJob on empty store = %v, %v; want false, nil", ok, err)
	}

	first, err := c.CreateJob("feb.xlsx", "ops@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != model.FileProcessing || first.ID == "" {
		t.Fatalf("CreateJob = %+v, want processing with an ID", first)
	}
	if err := c.CompleteJob(first.ID, "/out/feb.csv"); err != nil {
		t.Fatal(err)
	}

	second, err := c.CreateJob("mar.xlsx", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.FailJob(second.ID, errors.New("no daily sheets")); err != nil {
		t.Fatal(err)
	}

	done, ok, err := c.LatestJob(model.FileCompleted)
	if err != nil || !ok {
		t.Fatalf("LatestJob(completed) = %v, %v", ok, err)
	}
	if done.ID != first.ID || done.OutputPath != "/out/feb.csv" {
		t.Errorf("LatestJob(completed) = %+v, want %s with output", done, first.ID)
	}

	latest, ok, err := c.LatestJob("")
	if err != nil || !ok {
		t.Fatalf("LatestJob() = %v, %v", ok, err)
	}
	if latest.ID != second.ID || latest.Status != model.FileError || latest.Error != "no daily sheets" {
		t.Errorf("LatestJob() = %+v, want failed %s", latest, second.ID)
	}

	got, err := c.GetJob(first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.User != "ops@example.com" || got.OriginalFile != "feb.xlsx" {
		t.Errorf("GetJob = %+v", got)
	}

	jobs, err := c.ListJobs(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("ListJobs = %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != second.ID {
		t.Errorf("ListJobs[0] = %s, want newest %s", jobs[0].ID, second.ID)
	}

	if err := c.CompleteJob("missing", "x"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("CompleteJob(missing) = %v, want ErrJobNotFound", err)
	}
	if _, err := c.GetJob("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetJob(missing) = %v, want ErrJobNotFound", err)
	}
}
