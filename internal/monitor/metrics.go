package monitor

import (
	"math"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// GatewayMetrics tracks the editor gateway's validation traffic.
type GatewayMetrics struct {
	startedAt time.Time

	ValidationLatency *LatencyWindow // remote validation round trips
	RequestLatency    *LatencyWindow // HTTP requests served

	validationsRequested atomic.Uint64
	validationsValid     atomic.Uint64
	validationsInvalid   atomic.Uint64
	validationsFailed    atomic.Uint64
	validationsStale     atomic.Uint64
	httpRequests         atomic.Uint64
	serverErrors         atomic.Uint64

	activeEditors atomic.Int64
}

func NewGatewayMetrics() *GatewayMetrics {
	return &GatewayMetrics{
		startedAt:         time.Now(),
		ValidationLatency: NewLatencyWindow(1000),
		RequestLatency:    NewLatencyWindow(1000),
	}
}

// LatencyWindow keeps the most recent samples in a ring and summarizes them
// on demand.
type LatencyWindow struct {
	mu    sync.Mutex
	ring  []float64 // milliseconds
	next  int
	full  bool
	stale bool
	last  LatencyStats
}

func NewLatencyWindow(size int) *LatencyWindow {
	if size <= 0 {
		size = 1000
	}
	return &LatencyWindow{ring: make([]float64, size), stale: true}
}

// Observe records one duration.
func (w *LatencyWindow) Observe(d time.Duration) {
	w.mu.Lock()
	w.ring[w.next] = float64(d) / float64(time.Millisecond)
	w.next++
	if w.next == len(w.ring) {
		w.next, w.full = 0, true
	}
	w.stale = true
	w.mu.Unlock()
}

// Stats summarizes the window. Percentiles use the nearest-rank method.
func (w *LatencyWindow) Stats() LatencyStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stale {
		return w.last
	}

	n := w.next
	if w.full {
		n = len(w.ring)
	}
	if n == 0 {
		return LatencyStats{}
	}
	sorted := slices.Clone(w.ring[:n])
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	rank := func(p float64) float64 {
		i := int(math.Ceil(p*float64(n))) - 1
		return sorted[max(i, 0)]
	}
	w.last = LatencyStats{
		Count: n,
		Min:   sorted[0],
		Max:   sorted[n-1],
		Avg:   sum / float64(n),
		P50:   rank(0.50),
		P95:   rank(0.95),
		P99:   rank(0.99),
	}
	w.stale = false
	return w.last
}

// LatencyStats is in milliseconds.
type LatencyStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

func (m *GatewayMetrics) IncrementRequested() { m.validationsRequested.Add(1) }
func (m *GatewayMetrics) IncrementStale()     { m.validationsStale.Add(1) }

// ObserveRequest counts one served HTTP request.
func (m *GatewayMetrics) ObserveRequest(status int, took time.Duration) {
	m.httpRequests.Add(1)
	if status >= 500 {
		m.serverErrors.Add(1)
	}
	m.RequestLatency.Observe(took)
}

// RecordResult counts a finished validation by outcome.
func (m *GatewayMetrics) RecordResult(state string, failed bool, took time.Duration) {
	switch {
	case failed:
		m.validationsFailed.Add(1)
	case state == "valid":
		m.validationsValid.Add(1)
	default:
		m.validationsInvalid.Add(1)
	}
	m.ValidationLatency.Observe(took)
}

func (m *GatewayMetrics) EditorConnected()    { m.activeEditors.Add(1) }
func (m *GatewayMetrics) EditorDisconnected() { m.activeEditors.Add(-1) }

// MetricsSnapshot is the body of GET /api/metrics.
type MetricsSnapshot struct {
	ValidationLatency    LatencyStats `json:"validation_latency"`
	RequestLatency       LatencyStats `json:"request_latency"`
	ValidationsRequested uint64       `json:"validations_requested"`
	ValidationsValid     uint64       `json:"validations_valid"`
	ValidationsInvalid   uint64       `json:"validations_invalid"`
	ValidationsFailed    uint64       `json:"validations_failed"`
	ValidationsStale     uint64       `json:"validations_stale"`
	HTTPRequests         uint64       `json:"http_requests"`
	ServerErrors         uint64       `json:"server_errors"`
	ActiveEditors        int64        `json:"active_editors"`
	Goroutines           int          `json:"goroutines"`
	HeapAlloc            uint64       `json:"heap_alloc_bytes"`
	HeapSys              uint64       `json:"heap_sys_bytes"`
	UptimeSeconds        float64      `json:"uptime_seconds"`
	Timestamp            time.Time    `json:"timestamp"`
}

func (m *GatewayMetrics) GetSnapshot() MetricsSnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return MetricsSnapshot{
		ValidationLatency:    m.ValidationLatency.Stats(),
		RequestLatency:       m.RequestLatency.Stats(),
		ValidationsRequested: m.validationsRequested.Load(),
		ValidationsValid:     m.validationsValid.Load(),
		ValidationsInvalid:   m.validationsInvalid.Load(),
		ValidationsFailed:    m.validationsFailed.Load(),
		ValidationsStale:     m.validationsStale.Load(),
		HTTPRequests:         m.httpRequests.Load(),
		ServerErrors:         m.serverErrors.Load(),
		ActiveEditors:        m.activeEditors.Load(),
		Goroutines:           runtime.NumGoroutine(),
		HeapAlloc:            ms.HeapAlloc,
		HeapSys:              ms.HeapSys,
		UptimeSeconds:        m.Uptime().Seconds(),
		Timestamp:            time.Now(),
	}
}

func (m *GatewayMetrics) Uptime() time.Duration {
	return time.Since(m.startedAt)
}
