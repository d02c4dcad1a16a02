package cloud

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// PublishStats summarizes a Publish call.
type PublishStats struct {
	Files int
	Bytes int64
}

// Publish uploads each local file under dest, keyed by its base name.
// Files are sent one at a time in the given order; the first failure stops
// the upload.
func Publish(ctx context.Context, b Backend, dest Location, paths []string) (PublishStats, error) {
	var stats PublishStats
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		n, err := publishFile(ctx, b, dest.Join(filepath.Base(p)), p)
		if err != nil {
			return stats, err
		}
		stats.Files++
		stats.Bytes += n
	}
	return stats, nil
}

func publishFile(ctx context.Context, b Backend, key, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := b.Upload(ctx, key, f, info.Size()); err != nil {
		return 0, err
	}
	return info.Size(), nil
}
