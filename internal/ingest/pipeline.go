// Package ingest runs the per-file pipeline: line filtering, column
// selection, record decoding and node extraction.
//
// Input format: line-oriented text.
//
//   - In header mode the first line names the columns.
//   - Lines without the event marker are filtered out before decoding.
//   - Cells are split on ',' with no quoting rules; trailing empty cells are
//     not counted.
//
// Rows are decoded one at a time in file order. A malformed row is dropped
// with a Skip and the file continues.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"sensorlocator/internal/columns"
	"sensorlocator/internal/geo"
	"sensorlocator/internal/telemetry"
)

const (
	// DefaultEventMarker tags the rows that carry sensor reports.
	DefaultEventMarker = "Event-A"
	// DefaultRequiredColumns is the minimum row width in fixed-offset mode.
	DefaultRequiredColumns = 46

	cellSeparator = ","
	maxLineBytes  = 1024 * 1024
)

// DefaultOffsets are the fixed column offsets of the ground station export.
var DefaultOffsets = [4]int{38, 43, 44, 45}

type Options struct {
	Columns columns.Strategy
	// EventMarker must appear in a line for it to be decoded. Empty disables
	// filtering.
	EventMarker string
	// StripPattern, when set, is removed from every data line before it is
	// split.
	StripPattern *regexp.Regexp
	// MinColumns overrides the minimum row width. Zero uses the column map.
	MinColumns int
	// MaxRows stops after this many candidate rows. Zero means no limit.
	MaxRows int

	Decoder  *telemetry.Decoder
	Reporter Reporter
}

// Result is the outcome of one file. Skipped counts dropped rows;
// Unlocated counts accepted records with no usable position.
type Result struct {
	RunID   uuid.UUID
	Columns columns.IndexMap

	Lines     int
	Filtered  int
	Accepted  int
	Skipped   int
	Unlocated int

	Records []telemetry.Record
	Nodes   []geo.Node
	Skips   []Skip
}

// Process reads every line of r. Only failures that affect the whole file
// (read errors, unresolvable column map) are returned as errors.
func Process(r io.Reader, opts Options) (*Result, error) {
	dec := opts.Decoder
	if dec == nil {
		dec = telemetry.NewDecoder(nil)
	}
	rep := opts.Reporter
	if rep == nil {
		rep = nopReporter{}
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	res := &Result{RunID: uuid.New()}
	var header []string
	if opts.Columns.NeedsHeader() {
		if s.Scan() {
			res.Lines++
			header = SplitRow(strings.TrimPrefix(s.Text(), "\ufeff"))
		} else if err := s.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}

	cols, err := columns.Resolve(opts.Columns, header)
	if err != nil {
		return nil, fmt.Errorf("resolve columns: %w", err)
	}
	res.Columns = cols

	minCols := opts.MinColumns
	if minCols <= 0 {
		minCols = cols.Required()
	}

	var recordLines []int
	candidates := 0
	for s.Scan() {
		res.Lines++
		lineNo := res.Lines
		line := s.Text()
		if opts.StripPattern != nil {
			line = opts.StripPattern.ReplaceAllString(line, "")
		}
		if strings.TrimSpace(line) == "" || (opts.EventMarker != "" && !strings.Contains(line, opts.EventMarker)) {
			res.Filtered++
			rep.Filtered(lineNo, line)
			continue
		}

		if opts.MaxRows > 0 && candidates >= opts.MaxRows {
			break
		}
		candidates++

		row := SplitRow(line)
		if len(row) < minCols {
			res.skip(rep, lineNo, StageRow, fmt.Errorf("%w: %d < required %d", ErrTooFewColumns, len(row), minCols))
			continue
		}
		cells, err := cols.Select(row)
		if err != nil {
			res.skip(rep, lineNo, StageRow, err)
			continue
		}
		rec, err := dec.Build(cells[0], cells[1], cells[2], cells[3])
		if err != nil {
			res.skip(rep, lineNo, StageDecode, err)
			continue
		}
		res.Records = append(res.Records, rec)
		recordLines = append(recordLines, lineNo)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	res.Accepted = len(res.Records)

	res.Nodes = geo.BuildAll(res.Records, func(i int, err error) {
		res.Unlocated++
		s := Skip{Line: recordLines[i], Stage: StageNode, Reason: Reason(err), Err: err, Detail: err.Error()}
		res.Skips = append(res.Skips, s)
		rep.Skipped(s)
	})
	return res, nil
}

func (res *Result) skip(rep Reporter, line int, stage string, err error) {
	res.Skipped++
	s := Skip{Line: line, Stage: stage, Reason: Reason(err), Err: err, Detail: err.Error()}
	res.Skips = append(res.Skips, s)
	rep.Skipped(s)
}

// SplitRow splits a raw line on ',' and drops trailing empty cells.
func SplitRow(line string) []string {
	cells := strings.Split(line, cellSeparator)
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
