// Package storage moves report files between local disk, HTTP endpoints
// and Google Cloud Storage buckets.
package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	// ErrInvalidURI is returned for a malformed gs:// location.
	ErrInvalidURI = errors.New("invalid GCS URI")
	// ErrNoObjects is returned when a gs:// prefix holds no CSV objects.
	ErrNoObjects = errors.New("no CSV objects under prefix")
	// ErrTooLarge is returned when a download exceeds the size cap.
	ErrTooLarge = errors.New("payload exceeds size limit")
)

const gsScheme = "gs://"

// IsGCS reports whether location is a gs:// URI.
func IsGCS(location string) bool {
	return strings.HasPrefix(location, gsScheme)
}

// IsHTTP reports whether location is an http or https URL.
func IsHTTP(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// ParseGCSURI splits gs://bucket/path into bucket and object path. The
// object may be empty or end in "/" to denote a prefix.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !IsGCS(uri) {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	trimmed := strings.TrimPrefix(uri, gsScheme)
	bucket, object, _ = strings.Cut(trimmed, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w (no bucket): %s", ErrInvalidURI, uri)
	}
	return bucket, object, nil
}

// GCSURI joins a bucket and object path.
func GCSURI(bucket, object string) string {
	return gsScheme + bucket + "/" + strings.TrimPrefix(object, "/")
}

// ObjectName returns the object name for an upload: the base name of
// file, under a date-stamped folder when prefix is non-empty.
//
//	ObjectName("raw", "/tmp/Sales 2025.xlsx", t) == "raw/2025-02-01/Sales 2025.xlsx"
func ObjectName(prefix, file string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	if prefix == "" {
		return base
	}
	return path.Join(strings.Trim(prefix, "/"), at.UTC().Format("2006-01-02"), base)
}

// FileName returns the last path element of a location of any kind.
func FileName(location string) string {
	if IsGCS(location) {
		_, object, err := ParseGCSURI(location)
		if err != nil || object == "" {
			return strings.TrimPrefix(location, gsScheme)
		}
		return path.Base(object)
	}
	if IsHTTP(location) {
		location, _, _ = strings.Cut(location, "?")
	}
	return path.Base(strings.ReplaceAll(location, "\\", "/"))
}
