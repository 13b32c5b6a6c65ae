package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// DefaultMaxBytes caps a single download.
const DefaultMaxBytes = 64 << 20

// Fetcher reads report bytes from a local path, an http(s) URL or a
// gs:// URI. The GCS client is created on first use with Application
// Default Credentials. The zero value is ready to use.
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64

	mu     sync.Mutex
	client *storage.Client
}

// NewFetcher returns a Fetcher with a bounded HTTP timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{HTTPClient: &http.Client{Timeout: timeout}}
}

// Fetch returns the full contents behind location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	switch {
	case IsGCS(location):
		return f.fetchGCS(ctx, location)
	case IsHTTP(location):
		return f.fetchHTTP(ctx, location)
	default:
		return f.fetchFile(location)
	}
}

// Close releases the GCS client, if one was opened.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client == nil {
		return nil
	}
	err := f.client.Close()
	f.client = nil
	return err
}

func (f *Fetcher) limit() int64 {
	if f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return DefaultMaxBytes
}

func (f *Fetcher) fetchFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > f.limit() {
		return nil, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}
	return os.ReadFile(path)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	hc := f.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return readCapped(resp.Body, f.limit())
}

func (f *Fetcher) fetchGCS(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := f.gcs(ctx)
	if err != nil {
		return nil, err
	}

	if object == "" || strings.HasSuffix(object, "/") {
		object, err = latestCSVObject(ctx, client.Bucket(bucket), object)
		if err != nil {
			return nil, fmt.Errorf("gs://%s/: %w", bucket, err)
		}
	}

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, object, err)
	}
	defer func() { _ = rc.Close() }()

	return readCapped(rc, f.limit())
}

func (f *Fetcher) gcs(ctx context.Context) (*storage.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client != nil {
		return f.client, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	f.client = client
	return client, nil
}

// latestCSVObject returns the most recently updated .csv object under prefix.
func latestCSVObject(ctx context.Context, bkt *storage.BucketHandle, prefix string) (string, error) {
	it := bkt.Objects(ctx, &storage.Query{Prefix: prefix})

	var (
		name    string
		updated time.Time
	)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", fmt.Errorf("listing objects: %w", err)
		}
		if !strings.HasSuffix(strings.ToLower(attrs.Name), ".csv") {
			continue
		}
		if name == "" || attrs.Updated.After(updated) {
			name, updated = attrs.Name, attrs.Updated
		}
	}
	if name == "" {
		return "", ErrNoObjects
	}
	return name, nil
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
