// Package geo derives map-ready nodes from decoded telemetry records.
package geo

import (
	"errors"
	"fmt"

	"sensorlocator/internal/telemetry"
)

var (
	ErrNoPositionField   = errors.New("no position field")
	ErrMalformedPosition = errors.New("malformed position")
)

type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Node is a view over one record: its first position field plus every
// non-position field. Source is a lookup reference only.
type Node struct {
	Name     string            `json:"name"`
	Position Position          `json:"position"`
	Info     []telemetry.Field `json:"info"`
	Source   *telemetry.Record `json:"-"`
}

// Description renders one "Name = v (unit)" line per information field.
func (n Node) Description() []string {
	out := make([]string, len(n.Info))
	for i, f := range n.Info {
		out[i] = f.String()
	}
	return out
}

// NodeName is the deterministic placemark title for a record.
func NodeName(r *telemetry.Record) string {
	return fmt.Sprintf("SensorID = %d, timestamp = %d", r.SensorID, r.Timestamp)
}

// Build extracts the position from rec and packages the remaining fields.
func Build(rec *telemetry.Record) (Node, error) {
	var pos *telemetry.Field
	info := make([]telemetry.Field, 0, len(rec.Fields))
	for i := range rec.Fields {
		f := &rec.Fields[i]
		if !f.IsPosition() {
			info = append(info, *f)
			continue
		}
		if pos == nil {
			pos = f
		}
	}
	if pos == nil {
		return Node{}, fmt.Errorf("%w: sensor %d timestamp %d", ErrNoPositionField, rec.SensorID, rec.Timestamp)
	}
	if len(pos.Values) < 2 {
		return Node{}, fmt.Errorf("%w: %d values, need latitude and longitude", ErrMalformedPosition, len(pos.Values))
	}

	return Node{
		Name: NodeName(rec),
		Position: Position{
			Lat: pos.Values[telemetry.LatitudeIndex].Value,
			Lon: pos.Values[telemetry.LongitudeIndex].Value,
		},
		Info:   info,
		Source: rec,
	}, nil
}

// BuildAll builds a node per record, in order. Records that fail are passed
// to onSkip (when non-nil) with their index and left out.
func BuildAll(records []telemetry.Record, onSkip func(i int, err error)) []Node {
	nodes := make([]Node, 0, len(records))
	for i := range records {
		n, err := Build(&records[i])
		if err != nil {
			if onSkip != nil {
				onSkip(i, err)
			}
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}
