package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	sweepTotal        *prometheus.CounterVec
	sweepDuration     *prometheus.HistogramVec
	filesRemovedTotal *prometheus.CounterVec
	eventsTotal       *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	sweepTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dochandler",
			Subsystem: "retention",
			Name:      "sweeps_total",
			Help:      "Total retention sweeps by outcome.",
		},
		[]string{"service", "status"},
	)
	sweepDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dochandler",
			Subsystem: "retention",
			Name:      "sweep_duration_seconds",
			Help:      "Retention sweep duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	filesRemovedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dochandler",
			Subsystem: "retention",
			Name:      "files_removed_total",
			Help:      "Total temp files removed by retention sweeps.",
		},
		[]string{"service"},
	)
	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dochandler",
			Subsystem: "worker",
			Name:      "submission_events_total",
			Help:      "Total submission events consumed by verdict.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(sweepTotal, sweepDuration, filesRemovedTotal, eventsTotal)

	return &WorkerMetrics{
		registry:          registry,
		sweepTotal:        sweepTotal,
		sweepDuration:     sweepDuration,
		filesRemovedTotal: filesRemovedTotal,
		eventsTotal:       eventsTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) FinishSweep(service string, removed int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.sweepTotal.WithLabelValues(service, status).Inc()
	m.sweepDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if removed > 0 {
		m.filesRemovedTotal.WithLabelValues(service).Add(float64(removed))
	}
}

func (m *WorkerMetrics) RecordSubmissionEvent(service, status string) {
	if status == "" {
		status = "unknown"
	}
	m.eventsTotal.WithLabelValues(service, status).Inc()
}
