// Package source opens statlog inputs: local files, standard input and
// s3:// or gs:// objects, decompressing .gz and .zst transparently.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/ppiankov/statlog/internal/cloud"
)

// Stdin is the name that selects standard input.
const Stdin = "-"

var (
	// ErrNotFound is returned when no candidate for an input exists.
	ErrNotFound = errors.New("input not found")
	// ErrRemote wraps failures talking to object storage.
	ErrRemote = errors.New("object storage")
)

// compressed lists the suffixes tried, in order, when a local log is
// missing; logrotate leaves older days compressed.
var compressed = []string{".gz", ".zst"}

// Opener opens inputs. NewBackend is used for s3:// and gs:// names and
// may be replaced in tests.
type Opener struct {
	Stdin      io.Reader
	NewBackend func(ctx context.Context, loc cloud.Location) (cloud.Backend, error)
}

// NewOpener returns an Opener wired to os.Stdin and real cloud backends.
func NewOpener() *Opener {
	return &Opener{Stdin: os.Stdin, NewBackend: cloud.NewBackend}
}

// Open returns a reader for name and the name actually opened, which for
// local files may carry a compression suffix.
func (o *Opener) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	switch {
	case name == Stdin:
		return io.NopCloser(o.Stdin), name, nil
	case cloud.IsURL(name):
		return o.openObject(ctx, name)
	default:
		return openLocal(name)
	}
}

func openLocal(name string) (io.ReadCloser, string, error) {
	candidates := []string{name}
	if !hasCompressedSuffix(name) {
		for _, ext := range compressed {
			candidates = append(candidates, name+ext)
		}
	}
	for _, c := range candidates {
		f, err := os.Open(c)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, c, err
		}
		rc, err := decompress(c, f)
		if err != nil {
			_ = f.Close()
			return nil, c, err
		}
		return rc, c, nil
	}
	return nil, name, fmt.Errorf("%s: %w", name, ErrNotFound)
}

func (o *Opener) openObject(ctx context.Context, name string) (io.ReadCloser, string, error) {
	loc, err := cloud.ParseURL(name)
	if err != nil {
		return nil, name, err
	}
	if loc.Key == "" {
		return nil, name, fmt.Errorf("%s: no object key", name)
	}
	backend, err := o.NewBackend(ctx, loc)
	if err != nil {
		return nil, name, fmt.Errorf("%w: connect to %s: %w", ErrRemote, loc.Scheme, err)
	}
	body, err := backend.Open(ctx, loc.Key)
	if err != nil {
		_ = backend.Close()
		if errors.Is(err, cloud.ErrNotFound) {
			return nil, name, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, name, fmt.Errorf("%w: %w", ErrRemote, err)
	}
	rc, err := decompress(loc.Key, &stackedReader{Reader: body, closers: []func() error{body.Close, backend.Close}})
	if err != nil {
		_ = body.Close()
		_ = backend.Close()
		return nil, name, err
	}
	return rc, name, nil
}

func hasCompressedSuffix(name string) bool {
	for _, ext := range compressed {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// decompress wraps rc according to the suffix of name. The returned
// closer also closes rc.
func decompress(name string, rc io.ReadCloser) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("gzip open %s: %w", name, err)
		}
		return &stackedReader{Reader: zr, closers: []func() error{zr.Close, rc.Close}}, nil
	case strings.HasSuffix(name, ".zst"):
		dec, err := zstd.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("zstd open %s: %w", name, err)
		}
		closeDec := func() error { dec.Close(); return nil }
		return &stackedReader{Reader: dec, closers: []func() error{closeDec, rc.Close}}, nil
	default:
		return rc, nil
	}
}

type stackedReader struct {
	io.Reader
	closers []func() error
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
