package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/source"
	"github.com/theirongolddev/salesdash/internal/store"
)

// RecordCache persists parsed record sets keyed by source path.
type RecordCache interface {
	GetDataset(source string) (store.Dataset, bool, error)
	LoadRecords(source string) ([]model.TransactionRecord, error)
	SaveDataset(source string, ds store.Dataset, records []model.TransactionRecord) error
}

// loadWithCache reuses the cached record set when the file's mtime, size
// and the reference year are unchanged, and re-parses and re-caches it
// otherwise.
func (l *Loader) loadWithCache(ctx context.Context, path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	year := l.Normalizer.Year
	fp := store.Dataset{
		MtimeNs:   info.ModTime().UnixNano(),
		SizeBytes: info.Size(),
		Year:      year,
	}

	cached, ok, err := l.Cache.GetDataset(path)
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	if ok && cached.MtimeNs == fp.MtimeNs && cached.SizeBytes == fp.SizeBytes && cached.Year == year {
		records, err := l.Cache.LoadRecords(path)
		if err != nil {
			return nil, fmt.Errorf("loading cached records: %w", err)
		}
		return &LoadResult{
			Records:   records,
			Stats:     source.ParseStats{Rows: len(records)},
			Location:  path,
			FetchedAt: cached.FetchedAt,
			FromCache: true,
		}, nil
	}

	res, err := l.fetchAndParse(ctx, path)
	if err != nil {
		return nil, err
	}
	fp.FetchedAt = res.FetchedAt
	_ = l.Cache.SaveDataset(path, fp, res.Records)
	return res, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "salesdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "salesdash")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "salesdash.db")
}
