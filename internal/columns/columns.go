// Package columns locates the four telemetry cells (time, sensor id, length,
// data) inside an exported CSV row.
//
// Two strategies exist in the field exports and they do not always agree:
// fixed offsets, or header names where length and data sit immediately after
// the sensor id column. Both are exposed; neither is preferred.
package columns

import (
	"errors"
	"fmt"
	"strings"
)

// IndexMap keys.
const (
	Time     = "time"
	SensorID = "sensor_id"
	Length   = "length"
	Data     = "data"
)

// Keys lists the IndexMap keys in row-selection order.
var Keys = []string{Time, SensorID, Length, Data}

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrColumnConflict = errors.New("column conflict")
)

// IndexMap maps a key to a zero-based column offset. Partial maps omit keys.
type IndexMap map[string]int

// Complete reports whether all four keys are present.
func (m IndexMap) Complete() bool {
	for _, k := range Keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

// Required is the minimum column count a row needs for every mapped offset
// to exist.
func (m IndexMap) Required() int {
	hi := -1
	for _, v := range m {
		if v > hi {
			hi = v
		}
	}
	return hi + 1
}

// Select returns the cells for Keys in order. Missing keys or offsets outside
// the row yield an error.
func (m IndexMap) Select(row []string) ([]string, error) {
	out := make([]string, len(Keys))
	for i, k := range Keys {
		idx, ok := m[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s not mapped", ErrColumnNotFound, k)
		}
		if idx < 0 || idx >= len(row) {
			return nil, fmt.Errorf("%w: %s offset %d outside row of %d columns", ErrColumnNotFound, k, idx, len(row))
		}
		out[i] = row[idx]
	}
	return out, nil
}

// HeaderNames are the column titles searched for in header mode. Length and
// Data are optional: when set and present in the header they must agree with
// the sensor-id+1/+2 convention.
type HeaderNames struct {
	Time     string
	SensorID string
	Length   string
	Data     string
}

// DefaultHeaderNames are the titles written by the HUMPL ground station export.
var DefaultHeaderNames = HeaderNames{
	Time:     "HUMPL Time",
	SensorID: "Sensor ID",
	Length:   "Length",
	Data:     "Data",
}

// FromHeader resolves offsets from a header row. With requireAll, a missing
// time or sensor id column is an error; otherwise a partial map is returned.
func FromHeader(header []string, names HeaderNames, requireAll bool) (IndexMap, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: header is empty", ErrColumnNotFound)
	}

	m := IndexMap{}
	if i := indexOf(header, names.Time); i >= 0 {
		m[Time] = i
	} else if requireAll {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, names.Time)
	}

	sid := indexOf(header, names.SensorID)
	if sid < 0 {
		if requireAll {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, names.SensorID)
		}
		return m, nil
	}
	m[SensorID] = sid
	m[Length] = sid + 1
	m[Data] = sid + 2

	for _, c := range []struct {
		key  string
		name string
	}{{Length, names.Length}, {Data, names.Data}} {
		if c.name == "" {
			continue
		}
		if i := indexOf(header, c.name); i >= 0 && i != m[c.key] {
			return nil, fmt.Errorf("%w: %q found at column %d, expected %d after %q",
				ErrColumnConflict, c.name, i, m[c.key], names.SensorID)
		}
	}
	return m, nil
}

// Fixed builds a map from four literal offsets ordered as Keys.
func Fixed(offsets [4]int) (IndexMap, error) {
	m := make(IndexMap, len(Keys))
	for i, k := range Keys {
		if offsets[i] < 0 {
			return nil, fmt.Errorf("%w: %s offset %d is negative", ErrColumnNotFound, k, offsets[i])
		}
		m[k] = offsets[i]
	}
	return m, nil
}

// indexOf finds name by exact match, then by its double-quoted form.
func indexOf(header []string, name string) int {
	if name == "" {
		return -1
	}
	quoted := "\"" + name + "\""
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	for i, h := range header {
		if strings.TrimSpace(h) == quoted {
			return i
		}
	}
	return -1
}

const (
	ModeFixed  = "fixed"
	ModeHeader = "header"
)

// Strategy selects how a file's column map is built.
type Strategy struct {
	Mode       string
	Offsets    [4]int
	Names      HeaderNames
	RequireAll bool
}

// NeedsHeader reports whether the first line of the file is a header row.
func (s Strategy) NeedsHeader() bool { return s.Mode == ModeHeader }

// Resolve builds the column map for one file. header is ignored in fixed mode.
func Resolve(s Strategy, header []string) (IndexMap, error) {
	switch s.Mode {
	case ModeFixed, "":
		return Fixed(s.Offsets)
	case ModeHeader:
		return FromHeader(header, s.Names, s.RequireAll)
	default:
		return nil, fmt.Errorf("unknown column mode %q", s.Mode)
	}
}
