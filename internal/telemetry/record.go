package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one accepted telemetry row.
type Record struct {
	Timestamp int64   `json:"timestamp"`
	SensorID  int64   `json:"sensor_id"`
	Length    int     `json:"length"`
	Fields    []Field `json:"fields"`
}

// String renders the intermediate-file line: ts,id,len,[field, field].
func (r Record) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%d,%d,%d,[%s]", r.Timestamp, r.SensorID, r.Length, strings.Join(parts, ", "))
}

// Build decodes the four raw cells of one row into a record.
func (d *Decoder) Build(timestamp, sensorID, length, data string) (Record, error) {
	cells := []struct {
		name  string
		value string
	}{
		{"timestamp", timestamp},
		{"sensor_id", sensorID},
		{"length", length},
		{"data", data},
	}
	for _, c := range cells {
		if strings.TrimSpace(c.value) == "" {
			return Record{}, fmt.Errorf("%w: %s is empty", ErrMissingField, c.name)
		}
	}

	ts, err := parseInteger("timestamp", timestamp)
	if err != nil {
		return Record{}, err
	}
	id, err := parseInteger("sensor_id", sensorID)
	if err != nil {
		return Record{}, err
	}
	n, err := parseInteger("length", length)
	if err != nil {
		return Record{}, err
	}

	b, err := DecodeHex(data, int(n))
	if err != nil {
		return Record{}, err
	}
	fields, err := d.DecodeAll(Latin1(b))
	if err != nil {
		return Record{}, err
	}

	return Record{Timestamp: ts, SensorID: id, Length: int(n), Fields: fields}, nil
}

func parseInteger(name, s string) (int64, error) {
	s = strings.Trim(strings.TrimSpace(s), "\"")
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedInteger, name, s)
	}
	return v, nil
}
