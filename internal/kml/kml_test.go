package kml

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sensorlocator/internal/geo"
	"sensorlocator/internal/telemetry"
)

func sampleNodes(t *testing.T) []geo.Node {
	t.Helper()
	d := telemetry.NewDecoder(nil)
	fields, err := d.DecodeAll("P42.2,-8.7;T21.5;U80")
	if err != nil {
		t.Fatalf("DecodeAll() error: %v", err)
	}
	rec := telemetry.Record{Timestamp: 1000, SensorID: 7, Length: 19, Fields: fields}
	n, err := geo.Build(&rec)
	if err != nil {
		t.Fatalf("geo.Build() error: %v", err)
	}
	return []geo.Node{n}
}

func TestEncode_Placemark(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleNodes(t), Options{}); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, xml.Header) {
		t.Fatalf("missing xml header: %q", out[:40])
	}
	if !strings.Contains(out, `xmlns="`+Namespace+`"`) {
		t.Fatalf("missing namespace")
	}

	var doc document
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if doc.Doc.Name != DefaultDocumentName {
		t.Fatalf("name=%q", doc.Doc.Name)
	}
	if doc.Doc.Style.ID != "redIcon" || doc.Doc.Style.IconStyle.Color != "990000ff" || doc.Doc.Style.IconStyle.Icon.Href != DefaultIconURL {
		t.Fatalf("style=%+v", doc.Doc.Style)
	}
	if len(doc.Doc.Placemarks) != 1 {
		t.Fatalf("placemarks=%d want 1", len(doc.Doc.Placemarks))
	}
	pm := doc.Doc.Placemarks[0]
	if pm.Name != "SensorID = 7, timestamp = 1000" {
		t.Fatalf("placemark name=%q", pm.Name)
	}
	if pm.StyleURL != "#redIcon" {
		t.Fatalf("styleUrl=%q", pm.StyleURL)
	}
	if pm.Point.Coordinates != "-8.7,42.2" {
		t.Fatalf("coordinates=%q want lon,lat", pm.Point.Coordinates)
	}
	wantDesc := "<li>Temperature = 21.5 (centigrades)</li>\n<li>Relative Humidity = 80.0 (%)</li>"
	if pm.Description != wantDesc {
		t.Fatalf("description=%q want %q", pm.Description, wantDesc)
	}
}

func TestEncode_EmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil, Options{DocumentName: "empty", IconURL: "icon.png"}); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	var doc document
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if doc.Doc.Name != "empty" || doc.Doc.Style.IconStyle.Icon.Href != "icon.png" {
		t.Fatalf("doc=%+v", doc.Doc)
	}
	if len(doc.Doc.Placemarks) != 0 {
		t.Fatalf("placemarks=%d want 0", len(doc.Doc.Placemarks))
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.kml")
	if err := WriteFile(path, sampleNodes(t), Options{}); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(b), "<coordinates>-8.7,42.2</coordinates>") {
		t.Fatalf("unexpected output:\n%s", b)
	}
}
