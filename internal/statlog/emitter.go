package statlog

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/statlog/internal/payload"
)

// Emitter writes resolved key paths for each entry, either as a
// space-separated table or as pretty JSON blocks.
type Emitter struct {
	w      *bufio.Writer
	keys   []string
	paths  []payload.KeyPath
	pretty bool
}

// NewEmitter returns an Emitter for keys. With no keys the whole payload is
// emitted under the empty key.
func NewEmitter(w io.Writer, keys []string, pretty bool) *Emitter {
	if len(keys) == 0 {
		keys = []string{""}
	}
	paths := make([]payload.KeyPath, len(keys))
	for i, k := range keys {
		paths[i] = payload.ParseKeyPath(k)
	}
	return &Emitter{w: bufio.NewWriter(w), keys: keys, paths: paths, pretty: pretty}
}

// Header writes the column comment line. Pretty output has no header.
func (e *Emitter) Header() error {
	if e.pretty {
		return nil
	}
	quoted := make([]string, len(e.keys))
	for i, k := range e.keys {
		quoted[i] = `"` + k + `"`
	}
	_, err := fmt.Fprintf(e.w, "#\"date\" \"time\" %s\n", strings.Join(quoted, " "))
	return err
}

// Emit writes one entry.
func (e *Emitter) Emit(entry Entry) error {
	if e.pretty {
		return e.emitPretty(entry)
	}
	fields := make([]string, 0, len(e.paths)+1)
	fields = append(fields, entry.Timestamp)
	for _, p := range e.paths {
		fields = append(fields, payload.Text(payload.Resolve(entry.Payload, p)))
	}
	_, err := fmt.Fprintln(e.w, strings.Join(fields, " "))
	return err
}

func (e *Emitter) emitPretty(entry Entry) error {
	if _, err := fmt.Fprintf(e.w, "%s %s\n", entry.Timestamp, entry.Tag); err != nil {
		return err
	}
	for i, p := range e.paths {
		text, err := payload.Pretty(payload.Resolve(entry.Payload, p))
		if err != nil {
			return fmt.Errorf("render %q: %w", e.keys[i], err)
		}
		if _, err := fmt.Fprintf(e.w, "\"%s\"  =  %s\n", e.keys[i], text); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(e.w)
	return err
}

// Flush writes any buffered output.
func (e *Emitter) Flush() error {
	return e.w.Flush()
}

// Run scans r with s and emits every entry, returning the scan counters.
func Run(r io.Reader, s *Scanner, e *Emitter) (ScanStats, error) {
	if err := e.Header(); err != nil {
		return ScanStats{}, err
	}
	var emitErr error
	stats, err := s.Scan(r, func(entry Entry) bool {
		emitErr = e.Emit(entry)
		return emitErr == nil
	})
	if err == nil {
		err = emitErr
	}
	if ferr := e.Flush(); err == nil {
		err = ferr
	}
	return stats, err
}
