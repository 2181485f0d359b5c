package ingest

import "log"

// Stages at which a row or record can be dropped.
const (
	StageRow    = "row"
	StageDecode = "decode"
	StageNode   = "node"
)

// Skip is one dropped row (row/decode stage) or one record that produced no
// map node (node stage).
type Skip struct {
	Line   int    `json:"line"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
	Detail string `json:"detail"`
}

// Reporter receives diagnostics while a file is processed. Implementations
// must not fail; diagnostics never stop a run.
type Reporter interface {
	Filtered(line int, text string)
	Skipped(s Skip)
}

type nopReporter struct{}

func (nopReporter) Filtered(int, string) {}
func (nopReporter) Skipped(Skip)         {}

// LogReporter writes diagnostics to a standard logger. Filtered lines are
// only logged when Debug is set.
type LogReporter struct {
	Logger *log.Logger
	Debug  bool
}

func (lr LogReporter) logger() *log.Logger {
	if lr.Logger != nil {
		return lr.Logger
	}
	return log.Default()
}

func (lr LogReporter) Filtered(line int, text string) {
	if !lr.Debug {
		return
	}
	lr.logger().Printf("ingest: line filtered line=%d text=%q", line, text)
}

func (lr LogReporter) Skipped(s Skip) {
	lr.logger().Printf("ingest: %s skipped line=%d reason=%s err=%v", s.Stage, s.Line, s.Reason, s.Err)
}
