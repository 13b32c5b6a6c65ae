package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
)

// Uploader writes objects to GCS buckets.
type Uploader struct {
	Timeout time.Duration
	client  *storage.Client
}

// NewUploader opens a storage client with Application Default Credentials
// (gcloud auth application-default login).
func NewUploader(ctx context.Context) (*Uploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &Uploader{Timeout: 2 * time.Minute, client: client}, nil
}

// Close releases the underlying client.
func (u *Uploader) Close() error {
	return u.client.Close()
}

// Upload writes data to bucket/object and returns its gs:// URI.
func (u *Uploader) Upload(ctx context.Context, bucket, object, contentType string, data []byte) (string, error) {
	if u.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.Timeout)
		defer cancel()
	}

	w := u.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing %s/%s: %w", bucket, object, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing upload: %w", err)
	}
	return GCSURI(bucket, object), nil
}

// Sink stores a finished artifact and returns where it went.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// BucketSink puts artifacts into one GCS bucket under a prefix.
type BucketSink struct {
	Uploader *Uploader
	Bucket   string
	Prefix   string
}

// Put implements Sink.
func (s BucketSink) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	object := name
	if s.Prefix != "" {
		object = s.Prefix + "/" + name
	}
	return s.Uploader.Upload(ctx, s.Bucket, object, contentType, data)
}

// DirSink writes artifacts into a local directory.
type DirSink struct {
	Dir string
}

// Put implements Sink.
func (s DirSink) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return "", fmt.Errorf("creating %s: %w", s.Dir, err)
	}
	p := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(p, data, 0o640); err != nil {
		return "", fmt.Errorf("writing %s: %w", p, err)
	}
	return p, nil
}
