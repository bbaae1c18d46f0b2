package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total batched requests by operation and status.",
		},
		[]string{"operation", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tally",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Request round-trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)
	batchRecords = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tally",
			Subsystem: "client",
			Name:      "batch_records",
			Help:      "Records per submitted batch.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024},
		},
		[]string{"operation"},
	)
	inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tally",
			Subsystem: "client",
			Name:      "requests_in_flight",
			Help:      "Requests currently awaiting completion.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestsTotal, requestDuration, batchRecords, inFlight)
	})
}

func RecordRequest(operation, status string, records int, duration time.Duration) {
	RegisterMetrics()
	requestsTotal.WithLabelValues(operation, status).Inc()
	requestDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
	batchRecords.WithLabelValues(operation).Observe(float64(records))
}

func RequestStarted() {
	RegisterMetrics()
	inFlight.Inc()
}

func RequestFinished() {
	RegisterMetrics()
	inFlight.Dec()
}
