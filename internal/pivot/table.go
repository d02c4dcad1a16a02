// Package pivot reshapes iostat cells into per-metric series files.
package pivot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Missing is written for a device that has no value at a timestamp.
const Missing = "-"

// Table holds metric -> timestamp -> device -> raw value.
type Table struct {
	data map[string]map[string]map[string]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{data: make(map[string]map[string]map[string]string)}
}

// Add stores value for (metric, ts, device). The last write wins.
func (t *Table) Add(metric, ts, device, value string) {
	byTime, ok := t.data[metric]
	if !ok {
		byTime = make(map[string]map[string]string)
		t.data[metric] = byTime
	}
	byDevice, ok := byTime[ts]
	if !ok {
		byDevice = make(map[string]string)
		byTime[ts] = byDevice
	}
	byDevice[device] = value
}

// Get returns the value stored for (metric, ts, device).
func (t *Table) Get(metric, ts, device string) (string, bool) {
	v, ok := t.data[metric][ts][device]
	return v, ok
}

// Len returns the number of metrics.
func (t *Table) Len() int {
	return len(t.data)
}

// Metrics returns metric names in sorted order.
func (t *Table) Metrics() []string {
	return sortedKeys(t.data)
}

// Timestamps returns the timestamps of metric in lexicographic order,
// which is chronological for the fixed-width MM/DD/YY HH:MM:SS format
// within one year.
func (t *Table) Timestamps(metric string) []string {
	return sortedKeys(t.data[metric])
}

// Devices returns the sorted union of devices seen for metric across all
// timestamps.
func (t *Table) Devices(metric string) []string {
	seen := make(map[string]struct{})
	for _, byDevice := range t.data[metric] {
		for d := range byDevice {
			seen[d] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// WriteSeries writes metric as a tab-delimited series: a comment naming
// the run and metric, a column comment, then one row per timestamp.
func (t *Table) WriteSeries(w io.Writer, name, metric string) error {
	byTime, ok := t.data[metric]
	if !ok {
		return fmt.Errorf("unknown metric %q", metric)
	}
	devices := t.Devices(metric)
	times := t.Timestamps(metric)

	bw := bufio.NewWriter(w)
	_, _ = fmt.Fprintf(bw, "# %s %s\n", name, metric)

	width := 0
	if len(times) > 0 {
		width = len(times[0]) - 1
	}
	_, _ = fmt.Fprintf(bw, "#%-*s\t%s\n", width, "date time", strings.Join(devices, "\t"))

	for _, ts := range times {
		bw.WriteString(ts)
		for _, d := range devices {
			bw.WriteByte('\t')
			if v, ok := byTime[ts][d]; ok {
				bw.WriteString(v)
			} else {
				bw.WriteString(Missing)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// SeriesFileName returns "<name>.<metric>.dat" as a single path segment.
func SeriesFileName(name, metric string) string {
	return sanitize(name + "." + metric + ".dat")
}

// WriteFile writes metric to dir/SeriesFileName(name, metric) and returns
// the path.
func (t *Table) WriteFile(dir, name, metric string) (string, error) {
	path := filepath.Join(dir, SeriesFileName(name, metric))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.WriteSeries(f, name, metric); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
