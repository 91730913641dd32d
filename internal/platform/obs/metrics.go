package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// OracleRequests counts routing oracle sub-requests by outcome.
	OracleRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "oracle_requests_total", Help: "Routing oracle matrix sub-requests by outcome."},
		[]string{"outcome"},
	)
	// SolverRuns counts solver invocations by classified status.
	SolverRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solver_runs_total", Help: "Solver invocations by classified status."},
		[]string{"status"},
	)
	// CacheLookups counts travel cost cache lookups by result.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "travel_cost_cache_lookups_total", Help: "Travel cost cache lookups by result."},
		[]string{"result"},
	)
	// UnassignedRiders counts riders left unassigned by reason code.
	UnassignedRiders = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "unassigned_riders_total", Help: "Riders left unassigned, by reason code."},
		[]string{"reason"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(OracleRequests)
		Registry.MustRegister(SolverRuns)
		Registry.MustRegister(CacheLookups)
		Registry.MustRegister(UnassignedRiders)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
