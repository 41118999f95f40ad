package monitor

import (
	"net/http"
	"runtime"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/mem"
)

// virtualMemory is swapped in tests.
var virtualMemory = mem.VirtualMemory

// Registry exposes the gateway metrics in Prometheus text format. Values are
// read at scrape time.
func (m *GatewayMetrics) Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	gauge := func(name, help string, fn func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
	}
	counter := func(name, help string, c *atomic.Uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, func() float64 {
			return float64(c.Load())
		})
	}
	heap := func(pick func(*runtime.MemStats) uint64) func() float64 {
		return func() float64 {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			return float64(pick(&ms))
		}
	}
	sysMem := func(pick func(*mem.VirtualMemoryStat) uint64) func() float64 {
		return func() float64 {
			vm, err := virtualMemory()
			if err != nil {
				return 0
			}
			return float64(pick(vm))
		}
	}

	reg.MustRegister(
		gauge("process_uptime_seconds", "Seconds since the gateway started.", func() float64 {
			return m.Uptime().Seconds()
		}),
		gauge("go_heap_size_used_bytes", "Heap bytes in use.", heap(func(ms *runtime.MemStats) uint64 { return ms.HeapAlloc })),
		gauge("go_heap_size_total_bytes", "Heap bytes obtained from the OS.", heap(func(ms *runtime.MemStats) uint64 { return ms.HeapSys })),
		gauge("system_memory_free_bytes", "Available system memory.", sysMem(func(vm *mem.VirtualMemoryStat) uint64 { return vm.Available })),
		gauge("system_memory_total_bytes", "Total system memory.", sysMem(func(vm *mem.VirtualMemoryStat) uint64 { return vm.Total })),
		gauge("editor_sessions_active", "Open editor WebSocket sessions.", func() float64 {
			return float64(m.activeEditors.Load())
		}),
		counter("editor_validations_requested_total", "Remote validations sent to the backend.", &m.validationsRequested),
		counter("editor_validations_valid_total", "Remote validations answered valid.", &m.validationsValid),
		counter("editor_validations_invalid_total", "Remote validations answered invalid.", &m.validationsInvalid),
		counter("editor_validations_failed_total", "Remote validations that could not complete.", &m.validationsFailed),
		counter("editor_validations_stale_total", "Remote answers dropped because a newer edit existed.", &m.validationsStale),
		counter("gateway_http_requests_total", "HTTP requests served.", &m.httpRequests),
		counter("gateway_errors_total", "HTTP requests answered with a server error.", &m.serverErrors),
	)
	return reg
}

// Handler serves the registry.
func (m *GatewayMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
}
