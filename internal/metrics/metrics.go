package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// ScheduleRuns counts orchestration runs by outcome (accepted, rejected, invalid)
	ScheduleRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "schedule_runs_total", Help: "Scheduling runs by outcome."},
		[]string{"outcome"},
	)
	// DegradedRuns counts runs that completed on the deterministic fallback
	DegradedRuns = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "schedule_runs_degraded_total", Help: "Runs completed without the oracle."},
	)
	// RunQuality tracks reviewer quality scores
	RunQuality = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "schedule_run_quality", Help: "Reviewer quality score per run.", Buckets: []float64{0.1, 0.25, 0.5, 0.7, 0.8, 0.9, 0.95, 1}},
	)
	// StepLatency tracks executor step latencies in milliseconds by step name
	StepLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "schedule_step_latency_ms", Help: "Executor step latency in ms.", Buckets: []float64{5, 25, 100, 250, 500, 1000, 5000, 15000, 45000}},
		[]string{"step", "outcome"},
	)
)

// RegisterDefault registers collectors to the registry exactly once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(ScheduleRuns)
		Registry.MustRegister(DegradedRuns)
		Registry.MustRegister(RunQuality)
		Registry.MustRegister(StepLatency)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
