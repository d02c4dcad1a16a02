// Package cloud reads logs from and publishes series files to object
// storage.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotFound is wrapped by Open when the object does not exist.
var ErrNotFound = errors.New("object not found")

// Backend abstracts the object storage operations statlog needs.
type Backend interface {
	// Upload writes the content from r to the given key.
	Upload(ctx context.Context, key string, r io.Reader, size int64) error

	// Open streams the object at key. The caller closes the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Close releases the client. Readers returned by Open must be closed
	// first.
	Close() error
}

// Location is a parsed s3:// or gs:// URL.
type Location struct {
	Scheme string
	Bucket string
	Key    string // object key or key prefix, without trailing slash
}

// String returns the URL form of l.
func (l Location) String() string {
	if l.Key == "" {
		return l.Scheme + "://" + l.Bucket
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// Join returns the key name under l's prefix.
func (l Location) Join(name string) string {
	if l.Key == "" {
		return name
	}
	return l.Key + "/" + name
}

// IsURL reports whether s names an object storage location.
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "s3://") || strings.HasPrefix(s, "gs://")
}

// ParseURL splits an s3:// or gs:// URL into scheme, bucket and key.
func ParseURL(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty URL")
	}

	var loc Location
	var rest string
	switch {
	case strings.HasPrefix(raw, "s3://"):
		loc.Scheme = "s3"
		rest = strings.TrimPrefix(raw, "s3://")
	case strings.HasPrefix(raw, "gs://"):
		loc.Scheme = "gs"
		rest = strings.TrimPrefix(raw, "gs://")
	default:
		return Location{}, fmt.Errorf("unsupported scheme in %q: expected s3:// or gs://", raw)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("empty bucket in %q", raw)
	}
	loc.Bucket = bucket
	loc.Key = strings.TrimSuffix(key, "/")
	return loc, nil
}

// NewBackend creates a Backend for the location's scheme and bucket.
func NewBackend(ctx context.Context, loc Location) (Backend, error) {
	switch loc.Scheme {
	case "s3":
		return newS3Backend(ctx, loc.Bucket)
	case "gs":
		return newGCSBackend(ctx, loc.Bucket)
	default:
		return nil, fmt.Errorf("unsupported scheme %q: expected s3 or gs", loc.Scheme)
	}
}
