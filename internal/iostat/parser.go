// Package iostat reads the output of "iostat -x -t" and turns every device
// row into one cell per column.
//
// A report repeats blocks like:
//
//	07/27/15 11:59:24
//	avg-cpu:  %user   %nice %system %iowait  %steal   %idle
//	           3.95    0.00    1.24    7.85    0.00   86.96
//
//	Device:         rrqm/s   wrqm/s     r/s     w/s ...  %util
//	sdf               0.00  1174.00    0.60   18.40 ...   2.96
package iostat

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// DefaultDevices matches the disks collected by the host-stats setup.
// Other devices are dropped unless a wider pattern is passed explicitly.
const DefaultDevices = `sd[a-e]|sdg[0-9]`

var (
	timeRe   = regexp.MustCompile(`^\s*(\d\d/\d\d/\d\d \d\d:\d\d:\d\d)\s*$`)
	headerRe = regexp.MustCompile(`^\s*Device:?\s+(.+)$`)
	rowRe    = regexp.MustCompile(`^\s*(\S+)\s+(.+)$`)
)

// Cell is one column value of one device row.
type Cell struct {
	Timestamp string
	Device    string
	Column    string
	Value     string
}

// State is the context a data row is read in: the last timestamp and the
// last header seen. Both are replaced, never merged, by the next line of
// their kind.
type State struct {
	Timestamp string
	Columns   []string
}

// ParseStats counts line kinds seen by Parse.
type ParseStats struct {
	Lines      int64
	Timestamps int64
	Headers    int64
	Rows       int64
	Cells      int64
	Dropped    int64 // device rows without a timestamp or header yet
	Ignored    int64
}

// Parser classifies iostat lines.
type Parser struct {
	deviceRe *regexp.Regexp
}

// NewParser compiles a parser accepting devices matching the devices
// pattern. The pattern must match the whole device name. An empty pattern
// means DefaultDevices.
func NewParser(devices string) (*Parser, error) {
	if devices == "" {
		devices = DefaultDevices
	}
	re, err := regexp.Compile(`^(?:` + devices + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid device pattern %q: %w", devices, err)
	}
	return &Parser{deviceRe: re}, nil
}

// Parse reads r and calls fn for every cell. st carries the timestamp and
// header across calls so a report split over several readers keeps its
// context; pass a zero State to start fresh.
func (p *Parser) Parse(r io.Reader, st *State, fn func(Cell)) (ParseStats, error) {
	var stats ParseStats
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		stats.Lines++
		p.Line(scanner.Text(), st, fn, &stats)
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read iostat: %w", err)
	}
	return stats, nil
}

// Line classifies a single line, updating st or emitting cells.
func (p *Parser) Line(line string, st *State, fn func(Cell), stats *ParseStats) {
	line = strings.TrimSuffix(line, "\r")

	if m := timeRe.FindStringSubmatch(line); m != nil {
		st.Timestamp = m[1]
		stats.Timestamps++
		return
	}
	if m := headerRe.FindStringSubmatch(line); m != nil {
		st.Columns = strings.Fields(m[1])
		stats.Headers++
		return
	}
	m := rowRe.FindStringSubmatch(line)
	if m == nil || !p.deviceRe.MatchString(m[1]) {
		stats.Ignored++
		return
	}
	stats.Rows++
	if st.Timestamp == "" || len(st.Columns) == 0 {
		stats.Dropped++
		return
	}

	device, values := m[1], strings.Fields(m[2])
	for i, col := range st.Columns {
		if i >= len(values) {
			break
		}
		fn(Cell{Timestamp: st.Timestamp, Device: device, Column: col, Value: values[i]})
		stats.Cells++
	}
}
