// Package kml renders geo nodes as a KML 2.2 document, one placemark per
// node sharing a single icon style.
package kml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"sensorlocator/internal/geo"
	"sensorlocator/internal/telemetry"
)

const (
	Namespace = "http://www.opengis.net/kml/2.2"

	DefaultDocumentName = "HumSAT-D sensors"
	DefaultIconURL      = "http://www.clker.com/cliparts/O/5/U/b/h/Q/radio-waves-3-hpg-hi.png"

	styleID    = "redIcon"
	styleColor = "990000ff"
)

type Options struct {
	DocumentName string
	IconURL      string
}

func (o Options) withDefaults() Options {
	if o.DocumentName == "" {
		o.DocumentName = DefaultDocumentName
	}
	if o.IconURL == "" {
		o.IconURL = DefaultIconURL
	}
	return o
}

type document struct {
	XMLName xml.Name `xml:"kml"`
	NS      string   `xml:"xmlns,attr"`
	Doc     struct {
		Name       string      `xml:"name"`
		Style      style       `xml:"Style"`
		Placemarks []placemark `xml:"Placemark"`
	} `xml:"Document"`
}

type style struct {
	ID        string `xml:"id,attr"`
	IconStyle struct {
		Color string `xml:"color"`
		Icon  struct {
			Href string `xml:"href"`
		} `xml:"Icon"`
	} `xml:"IconStyle"`
}

type placemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	StyleURL    string `xml:"styleUrl"`
	Point       struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
}

// Description joins info lines as HTML list items.
func Description(n geo.Node) string {
	var b strings.Builder
	for _, line := range n.Description() {
		b.WriteString("<li>")
		b.WriteString(line)
		b.WriteString("</li>\n")
	}
	return strings.TrimSpace(b.String())
}

// Coordinates formats a position in KML axis order: longitude,latitude.
func Coordinates(p geo.Position) string {
	return telemetry.FormatValue(p.Lon) + "," + telemetry.FormatValue(p.Lat)
}

func build(nodes []geo.Node, opts Options) *document {
	opts = opts.withDefaults()

	d := &document{NS: Namespace}
	d.Doc.Name = opts.DocumentName
	d.Doc.Style.ID = styleID
	d.Doc.Style.IconStyle.Color = styleColor
	d.Doc.Style.IconStyle.Icon.Href = opts.IconURL

	d.Doc.Placemarks = make([]placemark, 0, len(nodes))
	for _, n := range nodes {
		var pm placemark
		pm.Name = strings.TrimSpace(n.Name)
		pm.Description = Description(n)
		pm.StyleURL = "#" + styleID
		pm.Point.Coordinates = Coordinates(n.Position)
		d.Doc.Placemarks = append(d.Doc.Placemarks, pm)
	}
	return d
}

// Encode writes the document for nodes to w. Zero nodes yield a document with
// only the name and style.
func Encode(w io.Writer, nodes []geo.Node, opts Options) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(build(nodes, opts)); err != nil {
		return fmt.Errorf("kml: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile encodes nodes into path, replacing any existing file. A failed
// encode removes path.
func WriteFile(path string, nodes []geo.Node, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, nodes, opts); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
