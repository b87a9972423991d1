package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "councilctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "councilctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	probeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "councilctl",
			Subsystem: "probe",
			Name:      "runs_total",
			Help:      "CLI probe runs by outcome.",
		},
		[]string{"outcome"},
	)
	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "councilctl",
			Subsystem: "probe",
			Name:      "run_duration_seconds",
			Help:      "CLI probe run duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)
	configReplaces = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "councilctl",
			Subsystem: "config",
			Name:      "replaces_total",
			Help:      "Configuration replace attempts by result.",
		},
		[]string{"result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, probeRuns, probeDuration, configReplaces)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordProbe(outcome string, duration time.Duration) {
	RegisterMetrics()
	probeRuns.WithLabelValues(outcome).Inc()
	probeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordConfigReplace counts replace attempts: "applied", "rejected"
// (validation) or "io_error".
func RecordConfigReplace(result string) {
	RegisterMetrics()
	configReplaces.WithLabelValues(result).Inc()
}
