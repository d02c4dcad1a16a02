package pivot

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Series is a series file read back into memory.
type Series struct {
	Name    string
	Metric  string
	Devices []string
	Values  map[string]map[string]string // timestamp -> device -> value
}

// ReadSeries parses the output of WriteSeries. Missing cells are left out
// of Values.
func ReadSeries(r io.Reader) (*Series, error) {
	s := &Series{Values: make(map[string]map[string]string)}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		switch {
		case lineNo == 1:
			rest, ok := strings.CutPrefix(line, "# ")
			idx := strings.LastIndexByte(rest, ' ')
			if !ok || idx <= 0 {
				return nil, fmt.Errorf("line 1: expected \"# <name> <metric>\", got %q", line)
			}
			s.Name, s.Metric = rest[:idx], rest[idx+1:]
		case lineNo == 2:
			cols := strings.Split(strings.TrimPrefix(line, "#"), "\t")
			if !strings.HasPrefix(line, "#") {
				return nil, fmt.Errorf("line 2: expected column header, got %q", line)
			}
			for _, d := range cols[1:] {
				if d != "" {
					s.Devices = append(s.Devices, d)
				}
			}
		case line == "":
			continue
		default:
			fields := strings.Split(line, "\t")
			if len(fields) != len(s.Devices)+1 {
				return nil, fmt.Errorf("line %d: %d fields, want %d", lineNo, len(fields), len(s.Devices)+1)
			}
			row := make(map[string]string, len(s.Devices))
			for i, d := range s.Devices {
				if v := fields[i+1]; v != Missing {
					row[d] = v
				}
			}
			s.Values[fields[0]] = row
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if lineNo < 2 {
		return nil, fmt.Errorf("series header incomplete")
	}
	return s, nil
}
