package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"sensorlocator/internal/columns"
)

type Config struct {
	Input   InputConfig   `yaml:"input"`
	Columns ColumnsConfig `yaml:"columns"`
	Output  OutputConfig  `yaml:"output"`
	Store   StoreConfig   `yaml:"store"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`
}

type InputConfig struct {
	EventMarker  string `yaml:"event_marker"`
	StripPattern string `yaml:"strip_pattern"`
	MaxRows      int    `yaml:"max_rows"`
}

type ColumnsConfig struct {
	Mode     string       `yaml:"mode"`
	Fixed    []int        `yaml:"fixed"`
	Required int          `yaml:"required"`
	Header   HeaderConfig `yaml:"header"`
}

type HeaderConfig struct {
	Time       string `yaml:"time"`
	SensorID   string `yaml:"sensor_id"`
	Length     string `yaml:"length"`
	Data       string `yaml:"data"`
	RequireAll bool   `yaml:"require_all"`
}

type OutputConfig struct {
	Format       string             `yaml:"format"`
	DocumentName string             `yaml:"document_name"`
	IconURL      string             `yaml:"icon_url"`
	Intermediate IntermediateConfig `yaml:"intermediate"`
}

type IntermediateConfig struct {
	Enable bool `yaml:"enable"`
	// Path defaults to the input path plus ".int".
	Path string `yaml:"path"`
}

type StoreConfig struct {
	Enable bool   `yaml:"enable"`
	DSN    string `yaml:"dsn"`
}

type WebConfig struct {
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	FormatKML     = "kml"
	FormatGeoJSON = "geojson"

	LevelInfo  = "info"
	LevelDebug = "debug"
)

// Default returns the settings of the ground station export format.
func Default() Config {
	return Config{
		Input: InputConfig{EventMarker: "Event-A"},
		Columns: ColumnsConfig{
			Mode:     columns.ModeFixed,
			Fixed:    []int{38, 43, 44, 45},
			Required: 46,
			Header: HeaderConfig{
				Time:       columns.DefaultHeaderNames.Time,
				SensorID:   columns.DefaultHeaderNames.SensorID,
				Length:     columns.DefaultHeaderNames.Length,
				Data:       columns.DefaultHeaderNames.Data,
				RequireAll: true,
			},
		},
		Output: OutputConfig{
			Format:       FormatKML,
			DocumentName: "HumSAT-D sensors",
			IconURL:      "http://www.clker.com/cliparts/O/5/U/b/h/Q/radio-waves-3-hpg-hi.png",
		},
		Web: WebConfig{Listen: ":8080"},
		Log: LogConfig{Level: LevelInfo},
	}
}

// Load reads path over Default(). Keys that do not exist in Config are
// rejected.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "not found in type") {
			return Config{}, fmt.Errorf("config contains unknown fields: %w", err)
		}
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fills derived defaults and checks every section.
func (c *Config) Validate() error {
	c.Input.EventMarker = strings.TrimSpace(c.Input.EventMarker)
	if c.Input.MaxRows < 0 {
		return fmt.Errorf("input.max_rows must be >= 0")
	}
	if _, err := c.StripRegexp(); err != nil {
		return fmt.Errorf("input.strip_pattern is invalid: %w", err)
	}

	c.Columns.Mode = strings.ToLower(strings.TrimSpace(c.Columns.Mode))
	switch c.Columns.Mode {
	case "":
		c.Columns.Mode = columns.ModeFixed
	case columns.ModeFixed, columns.ModeHeader:
	default:
		return fmt.Errorf("columns.mode must be 'fixed' or 'header'")
	}
	if c.Columns.Required < 0 {
		return fmt.Errorf("columns.required must be >= 0")
	}
	switch c.Columns.Mode {
	case columns.ModeFixed:
		if len(c.Columns.Fixed) != len(columns.Keys) {
			return fmt.Errorf("columns.fixed must list %d offsets (time, sensor_id, length, data)", len(columns.Keys))
		}
		for _, v := range c.Columns.Fixed {
			if v < 0 {
				return fmt.Errorf("columns.fixed offsets must be >= 0")
			}
		}
	case columns.ModeHeader:
		if strings.TrimSpace(c.Columns.Header.Time) == "" {
			return fmt.Errorf("columns.header.time is required when columns.mode is 'header'")
		}
		if strings.TrimSpace(c.Columns.Header.SensorID) == "" {
			return fmt.Errorf("columns.header.sensor_id is required when columns.mode is 'header'")
		}
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	switch c.Output.Format {
	case "":
		c.Output.Format = FormatKML
	case FormatKML, FormatGeoJSON:
	default:
		return fmt.Errorf("output.format must be 'kml' or 'geojson'")
	}

	if c.Store.Enable && strings.TrimSpace(c.Store.DSN) == "" {
		return fmt.Errorf("store.dsn is required when store.enable is true")
	}

	if strings.TrimSpace(c.Web.Listen) == "" {
		c.Web.Listen = ":8080"
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "":
		c.Log.Level = LevelInfo
	case LevelInfo, LevelDebug:
	default:
		return fmt.Errorf("log.level must be 'info' or 'debug'")
	}
	return nil
}

// Strategy converts the columns section for the ingest pipeline.
func (c Config) Strategy() columns.Strategy {
	s := columns.Strategy{
		Mode: c.Columns.Mode,
		Names: columns.HeaderNames{
			Time:     strings.TrimSpace(c.Columns.Header.Time),
			SensorID: strings.TrimSpace(c.Columns.Header.SensorID),
			Length:   strings.TrimSpace(c.Columns.Header.Length),
			Data:     strings.TrimSpace(c.Columns.Header.Data),
		},
		RequireAll: c.Columns.Header.RequireAll,
	}
	copy(s.Offsets[:], c.Columns.Fixed)
	return s
}

// MinColumns is the row width check for the pipeline. Header mode derives it
// from the resolved column map, so it returns 0 there.
func (c Config) MinColumns() int {
	if c.Columns.Mode == columns.ModeHeader {
		return 0
	}
	return c.Columns.Required
}

// StripRegexp compiles input.strip_pattern. An empty pattern yields nil.
func (c Config) StripRegexp() (*regexp.Regexp, error) {
	if strings.TrimSpace(c.Input.StripPattern) == "" {
		return nil, nil
	}
	return regexp.Compile(c.Input.StripPattern)
}
