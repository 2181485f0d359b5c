package web

import (
	"sync/atomic"
	"time"

	"sensorlocator/internal/ingest"
)

// Status holds the most recent pipeline result for the viewer. The result
// is replaced as a whole; readers never see a partial run.
type Status struct {
	startUnixNano int64
	loadedNano    int64
	loads         uint64
	source        atomic.Value // string
	result        atomic.Value // *ingest.Result
	lastErr       atomic.Value // string
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.source.Store("")
	s.result.Store((*ingest.Result)(nil))
	s.lastErr.Store("")
	return s
}

// SetResult publishes a finished run.
func (s *Status) SetResult(nowUTC time.Time, source string, res *ingest.Result) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	s.source.Store(source)
	s.result.Store(res)
	s.lastErr.Store("")
	atomic.StoreInt64(&s.loadedNano, nowUTC.UnixNano())
	atomic.AddUint64(&s.loads, 1)
}

// SetError records a failed load. The previous result stays published.
func (s *Status) SetError(err error) {
	if err == nil {
		s.lastErr.Store("")
		return
	}
	s.lastErr.Store(err.Error())
}

func (s *Status) Source() string { return s.source.Load().(string) }

// Result returns the published run, or nil before the first load.
func (s *Status) Result() *ingest.Result {
	return s.result.Load().(*ingest.Result)
}

type StatusSnapshot struct {
	Service   string `json:"service"`
	NowUTC    string `json:"now_utc"`
	UptimeSec int64  `json:"uptime_sec"`
	Source    string `json:"source"`
	RunID     string `json:"run_id,omitempty"`
	LoadedUTC string `json:"loaded_utc,omitempty"`
	Loads     uint64 `json:"loads"`
	LastError string `json:"last_error,omitempty"`

	Lines     int `json:"lines"`
	Filtered  int `json:"filtered"`
	Accepted  int `json:"accepted"`
	Skipped   int `json:"skipped"`
	Unlocated int `json:"unlocated"`
	Nodes     int `json:"nodes"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()

	snap := StatusSnapshot{
		Service:   "sensorlocator",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(start).Seconds()),
		Source:    s.source.Load().(string),
		Loads:     atomic.LoadUint64(&s.loads),
		LastError: s.lastErr.Load().(string),
	}
	if loaded := atomic.LoadInt64(&s.loadedNano); loaded != 0 {
		snap.LoadedUTC = time.Unix(0, loaded).UTC().Format(time.RFC3339Nano)
	}
	if res := s.Result(); res != nil {
		snap.RunID = res.RunID.String()
		snap.Lines = res.Lines
		snap.Filtered = res.Filtered
		snap.Accepted = res.Accepted
		snap.Skipped = res.Skipped
		snap.Unlocated = res.Unlocated
		snap.Nodes = len(res.Nodes)
	}
	return snap
}
