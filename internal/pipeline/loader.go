package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/source"
)

// ErrNoSource is returned when no CSV location could be resolved.
var ErrNoSource = errors.New("no data source: pass --source, set general.source, or upload a workbook")

// Fetcher retrieves the raw bytes behind a location (path, URL or gs:// URI).
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// LoadResult holds the output of one fetch + normalize run.
type LoadResult struct {
	Records   []model.TransactionRecord
	Stats     source.ParseStats
	Location  string
	FetchedAt time.Time
	FromCache bool
}

// Loader fetches and normalizes a data set. Cache is optional and only
// consulted for local files.
type Loader struct {
	Fetcher    Fetcher
	Normalizer source.Normalizer
	Cache      RecordCache
}

// Load fetches location and normalizes it. A fetch failure aborts the
// load; no partial record set is returned.
func (l *Loader) Load(ctx context.Context, location string) (*LoadResult, error) {
	if location == "" {
		return nil, ErrNoSource
	}
	if l.Cache != nil && IsLocal(location) {
		res, err := l.loadWithCache(ctx, location)
		if err == nil {
			return res, nil
		}
		// Cache trouble is not fatal; fall through to a plain load.
	}
	return l.fetchAndParse(ctx, location)
}

func (l *Loader) fetchAndParse(ctx context.Context, location string) (*LoadResult, error) {
	data, err := l.Fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	records, stats := l.Normalizer.Parse(data)
	return &LoadResult{
		Records:   records,
		Stats:     stats,
		Location:  location,
		FetchedAt: time.Now(),
	}, nil
}

// IsLocal reports whether location is a filesystem path rather than a URL.
func IsLocal(location string) bool {
	return !strings.Contains(location, "://")
}

// LatestJobFinder exposes the newest processed file with a given status.
type LatestJobFinder interface {
	LatestJob(status string) (model.ProcessedFile, bool, error)
}

// ResolveLocation picks the data set to load: an explicit location, then
// the configured default, then the output of the newest completed
// processed file, then the newest CSV in outputDir.
func ResolveLocation(explicit, configured string, jobs LatestJobFinder, outputDir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if configured != "" {
		return configured, nil
	}
	if jobs != nil {
		job, ok, err := jobs.LatestJob(model.FileCompleted)
		if err != nil {
			return "", fmt.Errorf("reading processed files: %w", err)
		}
		if ok && job.OutputPath != "" {
			return job.OutputPath, nil
		}
	}
	if outputDir != "" {
		p, err := source.LatestCSV(outputDir)
		if err != nil {
			return "", fmt.Errorf("scanning %s: %w", outputDir, err)
		}
		if p != "" {
			return p, nil
		}
	}
	return "", ErrNoSource
}
