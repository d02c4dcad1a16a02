package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Decode parses a JSON literal (object, array or scalar). Numbers are kept
// as json.Number so they are re-emitted exactly as written.
func Decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

// Text renders r for the space-separated table output. Absent renders as
// "-", strings are written raw and containers as compact JSON.
func Text(r Result) string {
	if !r.Found {
		return "-"
	}
	switch v := r.Value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		b, err := marshal(v, "")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// Pretty renders r as JSON indented by four spaces with sorted keys.
// Absent renders as null.
func Pretty(r Result) (string, error) {
	if !r.Found {
		return "null", nil
	}
	b, err := marshal(r.Value, "    ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// marshal encodes without HTML escaping. encoding/json sorts map keys.
func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
