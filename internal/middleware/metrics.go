package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics counts HTTP traffic and draft pipeline outcomes. All methods are
// safe for concurrent use.
type Metrics struct {
	requests  atomic.Uint64
	inFlight  atomic.Int64
	succeeded atomic.Uint64
	failed    atomic.Uint64

	drafts    atomic.Uint64
	analyses  atomic.Uint64
	completed atomic.Uint64
	aiFailed  atomic.Uint64
	quota     atomic.Uint64

	started time.Time
}

// MetricsSnapshot is the JSON body served on /metrics.
type MetricsSnapshot struct {
	RequestsTotal      uint64  `json:"requests_total"`
	RequestsInProgress int64   `json:"requests_in_progress"`
	RequestsSuccess    uint64  `json:"requests_success"`
	RequestsFailed     uint64  `json:"requests_failed"`
	DraftsCreated      uint64  `json:"drafts_created"`
	AnalysesTotal      uint64  `json:"analyses_total"`
	AnalysesCompleted  uint64  `json:"analyses_completed"`
	AnalysesFailed     uint64  `json:"analyses_failed"`
	AnalysesQuota      uint64  `json:"analyses_quota"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	Goroutines         int     `json:"goroutines"`
	Memory             struct {
		AllocBytes      uint64 `json:"alloc_bytes"`
		TotalAllocBytes uint64 `json:"total_alloc_bytes"`
		SysBytes        uint64 `json:"sys_bytes"`
		NumGC           uint32 `json:"num_gc"`
	} `json:"memory"`
}

func NewMetrics() *Metrics {
	return &Metrics{started: time.Now()}
}

// DraftCreated counts a stored draft.
func (m *Metrics) DraftCreated() { m.drafts.Add(1) }

// AnalysisFinished counts one analyze call that produced an Analysis row.
// quota marks failures caused by the provider's rate limit.
func (m *Metrics) AnalysisFinished(completed, quota bool) {
	m.analyses.Add(1)
	if completed {
		m.completed.Add(1)
		return
	}
	m.aiFailed.Add(1)
	if quota {
		m.quota.Add(1)
	}
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := MetricsSnapshot{
		RequestsTotal:      m.requests.Load(),
		RequestsInProgress: m.inFlight.Load(),
		RequestsSuccess:    m.succeeded.Load(),
		RequestsFailed:     m.failed.Load(),
		DraftsCreated:      m.drafts.Load(),
		AnalysesTotal:      m.analyses.Load(),
		AnalysesCompleted:  m.completed.Load(),
		AnalysesFailed:     m.aiFailed.Load(),
		AnalysesQuota:      m.quota.Load(),
		UptimeSeconds:      time.Since(m.started).Seconds(),
		Goroutines:         runtime.NumGoroutine(),
	}
	s.Memory.AllocBytes = mem.Alloc
	s.Memory.TotalAllocBytes = mem.TotalAlloc
	s.Memory.SysBytes = mem.Sys
	s.Memory.NumGC = mem.NumGC
	return s
}

// Middleware counts every request and classifies it by status code.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requests.Add(1)
		m.inFlight.Add(1)
		defer m.inFlight.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode < 400 {
			m.succeeded.Add(1)
		} else {
			m.failed.Add(1)
		}
	})
}

// Handler serves the current snapshot as JSON.
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.Snapshot())
}
