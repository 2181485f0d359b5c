package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"sensorlocator/internal/config"
	"sensorlocator/internal/ingest"
	"sensorlocator/internal/telemetry"
)

// runPipeline decodes one input file with cfg and logs the outcome.
func runPipeline(cfg config.Config, input string, logger *log.Logger) (*ingest.Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("input path is empty")
	}
	if logger == nil {
		logger = log.Default()
	}

	strip, err := cfg.StripRegexp()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := ingest.Process(f, ingest.Options{
		Columns:      cfg.Strategy(),
		EventMarker:  cfg.Input.EventMarker,
		StripPattern: strip,
		MinColumns:   cfg.MinColumns(),
		MaxRows:      cfg.Input.MaxRows,
		Decoder:      telemetry.NewDecoder(nil),
		Reporter:     ingest.LogReporter{Logger: logger, Debug: cfg.Log.Level == config.LevelDebug},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}

	logger.Printf("ingest: done run=%s input=%s lines=%d filtered=%d accepted=%d skipped=%d unlocated=%d nodes=%d",
		res.RunID, input, res.Lines, res.Filtered, res.Accepted, res.Skipped, res.Unlocated, len(res.Nodes))

	if cfg.Output.Intermediate.Enable {
		path := strings.TrimSpace(cfg.Output.Intermediate.Path)
		if path == "" {
			path = ingest.IntermediatePath(input)
		}
		if err := writeIntermediate(path, res); err != nil {
			return nil, fmt.Errorf("intermediate %s: %w", path, err)
		}
		logger.Printf("ingest: intermediate written path=%s records=%d", path, len(res.Records))
	}
	return res, nil
}

func writeIntermediate(path string, res *ingest.Result) error {
	w, err := ingest.CreateIntermediate(path)
	if err != nil {
		return err
	}
	if err := w.WriteAll(res.Records); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
