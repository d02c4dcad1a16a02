package payload

import (
	"strconv"
	"strings"
)

// KeyPath is an ordered list of segments navigating into a decoded payload.
// A segment made only of ASCII digits indexes a sequence; any other segment
// is a mapping key. An empty path selects the whole payload.
type KeyPath []string

// ParseKeyPath splits a whitespace-separated key such as "write mb" or
// "pgs_by_state 0 count" into segments. Dots are kept literally because
// ceph key names often contain them ("osd.3").
func ParseKeyPath(s string) KeyPath {
	return KeyPath(strings.Fields(s))
}

// Result is the outcome of a key path lookup. The zero Result is Absent.
type Result struct {
	Value any
	Found bool
}

// Absent is returned when any segment of a key path fails to resolve.
var Absent = Result{}

// Found wraps a resolved value. A resolved JSON null is Found(nil), which is
// distinct from Absent.
func Found(v any) Result {
	return Result{Value: v, Found: true}
}

// Resolve walks path through value. It stops at the first segment that
// cannot be applied (missing key, index out of range, stepping into a
// scalar) and returns Absent. It never panics.
func Resolve(value any, path KeyPath) Result {
	v := value
	for _, seg := range path {
		next, ok := step(v, seg)
		if !ok {
			return Absent
		}
		v = next
	}
	return Found(v)
}

func step(v any, seg string) (any, bool) {
	if isIndex(seg) {
		seq, ok := v.([]any)
		if !ok {
			return nil, false
		}
		i, err := strconv.Atoi(seg)
		if err != nil || i >= len(seq) {
			return nil, false
		}
		return seq[i], true
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	next, ok := m[seg]
	return next, ok
}

func isIndex(seg string) bool {
	if seg == "" {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}
