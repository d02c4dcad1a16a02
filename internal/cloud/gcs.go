package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"

	gstorage "cloud.google.com/go/storage"
)

type gcsBackend struct {
	bucket    string
	newWriter func(ctx context.Context, bucket, key string) io.WriteCloser
	newReader func(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	close     func() error
}

func newGCSBackend(ctx context.Context, bucket string) (*gcsBackend, error) {
	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &gcsBackend{
		bucket: bucket,
		newWriter: func(ctx context.Context, b, key string) io.WriteCloser {
			return client.Bucket(b).Object(key).NewWriter(ctx)
		},
		newReader: func(ctx context.Context, b, key string) (io.ReadCloser, error) {
			return client.Bucket(b).Object(key).NewReader(ctx)
		},
		close: client.Close,
	}, nil
}

func (b *gcsBackend) Close() error {
	if b.close == nil {
		return nil
	}
	if err := b.close(); err != nil {
		return fmt.Errorf("close GCS client: %w", err)
	}
	return nil
}

func (b *gcsBackend) Upload(ctx context.Context, key string, r io.Reader, _ int64) error {
	w := b.newWriter(ctx, b.bucket, key)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs finalize %s: %w", key, err)
	}
	return nil
}

func (b *gcsBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := b.newReader(ctx, b.bucket, key)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gcs get %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs get %s: %w", key, err)
	}
	return r, nil
}
