package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"

	"sensorlocator/internal/columns"
)

var fixedStrategy = columns.Strategy{Mode: columns.ModeFixed, Offsets: DefaultOffsets}

// fixedRow builds a 46-column export row with the telemetry cells at the
// default offsets.
func fixedRow(cols int, ts, id, n, data string) string {
	cells := make([]string, cols)
	cells[0] = DefaultEventMarker
	for i := 1; i < cols; i++ {
		cells[i] = "x"
	}
	set := func(i int, v string) {
		if i < cols {
			cells[i] = v
		}
	}
	set(DefaultOffsets[0], ts)
	set(DefaultOffsets[1], id)
	set(DefaultOffsets[2], n)
	set(DefaultOffsets[3], data)
	return strings.Join(cells, ",")
}

type recordingReporter struct {
	filtered []int
	skipped  []Skip
}

func (r *recordingReporter) Filtered(line int, _ string) { r.filtered = append(r.filtered, line) }
func (r *recordingReporter) Skipped(s Skip)              { r.skipped = append(r.skipped, s) }

func TestProcess_FixedOffsets(t *testing.T) {
	in := strings.Join([]string{
		fixedRow(46, "1000", "7", "8", "503132332c343536"),
		"Event-B,not,a,sensor,report",
		fixedRow(40, "1001", "7", "8", "503132332c343536"),
		fixedRow(46, "1002", "8", "4", "54616263"),
		fixedRow(46, "1003", "9", "5", "5432312e35"),
		fixedRow(46, "1004", "9", "8", "503132332c343536"),
	}, "\n") + "\n"

	rep := &recordingReporter{}
	res, err := Process(strings.NewReader(in), Options{
		Columns:     fixedStrategy,
		EventMarker: DefaultEventMarker,
		MinColumns:  DefaultRequiredColumns,
		Reporter:    rep,
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if res.Lines != 6 || res.Filtered != 1 {
		t.Fatalf("lines=%d filtered=%d want 6/1", res.Lines, res.Filtered)
	}
	if res.Accepted != 3 || res.Skipped != 2 || res.Unlocated != 1 {
		t.Fatalf("accepted=%d skipped=%d unlocated=%d want 3/2/1", res.Accepted, res.Skipped, res.Unlocated)
	}
	if len(res.Nodes) != 2 {
		t.Fatalf("nodes=%d want 2", len(res.Nodes))
	}
	if res.Nodes[0].Name != "SensorID = 7, timestamp = 1000" || res.Nodes[1].Source.Timestamp != 1004 {
		t.Fatalf("unexpected nodes: %q, %d", res.Nodes[0].Name, res.Nodes[1].Source.Timestamp)
	}
	if got := res.Records[0].String(); got != "1000,7,8,[Position = 123.0 (degrees), 456.0 (degrees)]" {
		t.Fatalf("record=%q", got)
	}

	want := []struct {
		line   int
		stage  string
		reason string
	}{
		{3, StageRow, "too_few_columns"},
		{4, StageDecode, "malformed_value"},
		{5, StageNode, "no_position_field"},
	}
	if len(res.Skips) != len(want) {
		t.Fatalf("skips=%+v", res.Skips)
	}
	for i, w := range want {
		s := res.Skips[i]
		if s.Line != w.line || s.Stage != w.stage || s.Reason != w.reason {
			t.Fatalf("skip[%d]=%+v want line=%d stage=%s reason=%s", i, s, w.line, w.stage, w.reason)
		}
	}
	if len(rep.skipped) != 3 || len(rep.filtered) != 1 || rep.filtered[0] != 2 {
		t.Fatalf("reporter skipped=%d filtered=%v", len(rep.skipped), rep.filtered)
	}
	if res.RunID == uuid.Nil {
		t.Fatalf("missing run id")
	}
}

func TestProcess_ZeroRowsSucceeds(t *testing.T) {
	res, err := Process(strings.NewReader(""), Options{Columns: fixedStrategy, EventMarker: DefaultEventMarker})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if res.Accepted != 0 || len(res.Nodes) != 0 || len(res.Skips) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestProcess_HeaderMode(t *testing.T) {
	in := "\ufeffEvent,HUMPL Time,\"Sensor ID\",Length,Data\n" +
		"Event-A,1000,7,8,503132332c343536\n" +
		"Event-A,1001,7\n"
	res, err := Process(strings.NewReader(in), Options{
		Columns: columns.Strategy{
			Mode:       columns.ModeHeader,
			Names:      columns.DefaultHeaderNames,
			RequireAll: true,
		},
		EventMarker: DefaultEventMarker,
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if res.Columns[columns.Time] != 1 || res.Columns[columns.Data] != 4 {
		t.Fatalf("columns=%v", res.Columns)
	}
	if res.Lines != 3 || res.Accepted != 1 || res.Skipped != 1 {
		t.Fatalf("lines=%d accepted=%d skipped=%d", res.Lines, res.Accepted, res.Skipped)
	}
	if res.Skips[0].Reason != "too_few_columns" {
		t.Fatalf("reason=%q", res.Skips[0].Reason)
	}
}

func TestProcess_HeaderModeFailures(t *testing.T) {
	strategy := columns.Strategy{Mode: columns.ModeHeader, Names: columns.DefaultHeaderNames, RequireAll: true}

	if _, err := Process(strings.NewReader(""), Options{Columns: strategy}); !errors.Is(err, columns.ErrColumnNotFound) {
		t.Fatalf("empty file err=%v want ErrColumnNotFound", err)
	}
	if _, err := Process(strings.NewReader("a,b,c\n"), Options{Columns: strategy}); !errors.Is(err, columns.ErrColumnNotFound) {
		t.Fatalf("bad header err=%v want ErrColumnNotFound", err)
	}
}

func TestProcess_StripPattern(t *testing.T) {
	in := "Note,HUMPL Time,Sensor ID,Length,Data\n" +
		"Event-A 12:30:00,25,1000,7,8,503132332c343536\n"
	res, err := Process(strings.NewReader(in), Options{
		Columns:      columns.Strategy{Mode: columns.ModeHeader, Names: columns.DefaultHeaderNames, RequireAll: true},
		EventMarker:  DefaultEventMarker,
		StripPattern: regexp.MustCompile(`[0-9]{2}:[0-9]{2}:[0-9]{2},[0-9]{2}`),
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if res.Accepted != 1 || len(res.Nodes) != 1 {
		t.Fatalf("accepted=%d nodes=%d skips=%+v", res.Accepted, len(res.Nodes), res.Skips)
	}
	if res.Records[0].Timestamp != 1000 || res.Records[0].SensorID != 7 {
		t.Fatalf("record=%+v", res.Records[0])
	}
}

func TestProcess_MaxRows(t *testing.T) {
	var lines []string
	for i := 0; i < 5; i++ {
		lines = append(lines, fixedRow(46, "100", "1", "8", "503132332c343536"))
	}
	res, err := Process(strings.NewReader(strings.Join(lines, "\n")), Options{
		Columns:     fixedStrategy,
		EventMarker: DefaultEventMarker,
		MaxRows:     2,
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if res.Accepted != 2 {
		t.Fatalf("accepted=%d want 2", res.Accepted)
	}
}

func TestSplitRow_DropsTrailingEmpty(t *testing.T) {
	if got := SplitRow("a,,b,,"); len(got) != 3 || got[1] != "" {
		t.Fatalf("SplitRow()=%q", got)
	}
	if got := SplitRow(",,"); len(got) != 0 {
		t.Fatalf("SplitRow()=%q want empty", got)
	}
}

func TestReason_Unknown(t *testing.T) {
	if got := Reason(errors.New("boom")); got != "error" {
		t.Fatalf("Reason()=%q", got)
	}
}

func TestIntermediateWriter(t *testing.T) {
	in := fixedRow(46, "1000", "7", "8", "503132332c343536") + "\n" +
		fixedRow(46, "1001", "8", "5", "5432312e35") + "\n"
	res, err := Process(strings.NewReader(in), Options{Columns: fixedStrategy, EventMarker: DefaultEventMarker})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	dir := t.TempDir()
	input := filepath.Join(dir, "capture.csv")
	path := IntermediatePath(input)
	if path != input+".int" {
		t.Fatalf("IntermediatePath()=%q", path)
	}

	w, err := CreateIntermediate(path)
	if err != nil {
		t.Fatalf("CreateIntermediate() error: %v", err)
	}
	if err := w.WriteAll(res.Records); err != nil {
		t.Fatalf("WriteAll() error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := w.WriteRecord(res.Records[0]); err == nil {
		t.Fatalf("expected error writing after close")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	want := "1000,7,8,[Position = 123.0 (degrees), 456.0 (degrees)]\n" +
		"1001,8,5,[Temperature = 21.5 (centigrades)]\n"
	if string(b) != want {
		t.Fatalf("intermediate=%q want %q", b, want)
	}
	if w.Count() != 2 {
		t.Fatalf("count=%d", w.Count())
	}
}

func TestProcess_NonFiniteValueSkipped(t *testing.T) {
	in := fixedRow(46, "1000", "7", "6", "504e614e2c32") + "\n" +
		fixedRow(46, "1001", "8", "4", "54696e66") + "\n" +
		fixedRow(46, "1002", "9", "8", "503132332c343536") + "\n"
	res, err := Process(strings.NewReader(in), Options{Columns: fixedStrategy, EventMarker: DefaultEventMarker})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if res.Accepted != 1 || res.Skipped != 2 || len(res.Nodes) != 1 {
		t.Fatalf("accepted=%d skipped=%d nodes=%d want 1/2/1", res.Accepted, res.Skipped, len(res.Nodes))
	}
	for i, s := range res.Skips {
		if s.Line != i+1 || s.Stage != StageDecode || s.Reason != "malformed_value" {
			t.Fatalf("skip[%d]=%+v want line=%d decode/malformed_value", i, s, i+1)
		}
	}
}
