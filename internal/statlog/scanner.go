package statlog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ppiankov/statlog/internal/payload"
)

// Entry is one tagged line of a ceph-stats log.
type Entry struct {
	Timestamp string
	Tag       string
	Payload   any
}

// ScanStats counts what a scan saw.
type ScanStats struct {
	Lines   int64
	Matched int64
	Skipped int64
}

// PayloadError reports a tagged line whose payload is not valid JSON.
type PayloadError struct {
	Line      int64
	Timestamp string
	Err       error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("line %d (%s): malformed payload: %v", e.Line, e.Timestamp, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// Scanner selects the lines of one tag from a ceph-stats log.
type Scanner struct {
	tag string
	re  *regexp.Regexp
}

// NewScanner builds a scanner for tag. The tag is matched literally.
func NewScanner(tag string) *Scanner {
	return &Scanner{
		tag: tag,
		re: regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) \[` +
			regexp.QuoteMeta(tag) + `\] \s*(.*)$`),
	}
}

// Tag returns the tag the scanner matches.
func (s *Scanner) Tag() string { return s.tag }

// Scan reads r line by line in file order and calls fn for every tagged
// entry. Lines have no length limit. Unmatched lines are skipped. If fn
// returns false, scanning stops. A tagged line with an undecodable payload
// stops the scan with a *PayloadError.
func (s *Scanner) Scan(r io.Reader, fn func(Entry) bool) (ScanStats, error) {
	var stats ScanStats
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return stats, fmt.Errorf("read log: %w", err)
		}
		if line == "" && err == io.EOF {
			return stats, nil
		}
		stats.Lines++
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		m := s.re.FindStringSubmatch(line)
		if m == nil {
			stats.Skipped++
		} else {
			v, derr := payload.Decode(m[2])
			if derr != nil {
				return stats, &PayloadError{Line: stats.Lines, Timestamp: m[1], Err: derr}
			}
			stats.Matched++
			if !fn(Entry{Timestamp: m[1], Tag: s.tag, Payload: v}) {
				return stats, nil
			}
		}
		if err == io.EOF {
			return stats, nil
		}
	}
}
