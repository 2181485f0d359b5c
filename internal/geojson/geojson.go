// Package geojson renders geo nodes as a GeoJSON FeatureCollection.
package geojson

import (
	"encoding/json"
	"io"
	"os"

	"sensorlocator/internal/geo"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Name     string    `json:"name,omitempty"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

type Geometry struct {
	Type string `json:"type"`
	// Coordinates are [longitude, latitude].
	Coordinates [2]float64 `json:"coordinates"`
}

type Properties struct {
	Name        string   `json:"name"`
	SensorID    int64    `json:"sensor_id"`
	Timestamp   int64    `json:"timestamp"`
	Description []string `json:"description"`
}

// Collection converts nodes in order. Features is never nil.
func Collection(name string, nodes []geo.Node) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Name: name, Features: make([]Feature, 0, len(nodes))}
	for _, n := range nodes {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: [2]float64{n.Position.Lon, n.Position.Lat},
			},
			Properties: Properties{
				Name:        n.Name,
				Description: n.Description(),
			},
		}
		if n.Source != nil {
			f.Properties.SensorID = n.Source.SensorID
			f.Properties.Timestamp = n.Source.Timestamp
		}
		fc.Features = append(fc.Features, f)
	}
	return fc
}

func Encode(w io.Writer, name string, nodes []geo.Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Collection(name, nodes))
}

// WriteFile encodes nodes into path. A failed encode removes path.
func WriteFile(path, name string, nodes []geo.Node) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, name, nodes); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
