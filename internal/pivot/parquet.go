package pivot

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const parquetBatchSize = 50000

// parquetCell is the Parquet schema: one row per (metric, timestamp, device).
type parquetCell struct {
	Name      string `parquet:"name,dict"`
	Metric    string `parquet:"metric,dict"`
	Timestamp string `parquet:"timestamp"`
	Device    string `parquet:"device,dict"`
	Value     string `parquet:"value"`
}

// WriteParquet writes every cell of t in long format, sorted by metric,
// timestamp and device, to path.
func WriteParquet(path, name string, t *Table) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	w := parquet.NewGenericWriter[parquetCell](f,
		parquet.Compression(&zstd.Codec{}),
	)

	var rows int64
	batch := make([]parquetCell, 0, parquetBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := w.Write(batch)
		rows += int64(len(batch))
		batch = batch[:0]
		return err
	}

	for _, metric := range t.Metrics() {
		devices := t.Devices(metric)
		for _, ts := range t.Timestamps(metric) {
			for _, d := range devices {
				v, ok := t.Get(metric, ts, d)
				if !ok {
					continue
				}
				batch = append(batch, parquetCell{Name: name, Metric: metric, Timestamp: ts, Device: d, Value: v})
				if len(batch) >= parquetBatchSize {
					if err := flush(); err != nil {
						_ = w.Close()
						_ = f.Close()
						return rows, fmt.Errorf("write parquet: %w", err)
					}
				}
			}
		}
	}

	if err := flush(); err != nil {
		_ = w.Close()
		_ = f.Close()
		return rows, fmt.Errorf("write parquet: %w", err)
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return rows, fmt.Errorf("close parquet writer: %w", err)
	}
	return rows, f.Close()
}
