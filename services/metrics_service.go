package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Version outcomes recorded per tracked package.
const (
	OutcomeResolved    = "resolved"
	OutcomeRejected    = "rejected"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeFiltered    = "filtered"
)

/**
 * Metrics collected during one resolution run
 * @description
 * - Owns its registry so several runs (and tests) never collide on registration
 * - Implements registry.Observer for per-request accounting
 */
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	versionCount    *prometheus.CounterVec
	lastRun         prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdnsync_registry_requests_total",
				Help: "Total registry metadata requests",
			},
			[]string{"kind", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cdnsync_registry_request_duration_seconds",
				Help:    "Duration of registry metadata requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		versionCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdnsync_versions_total",
				Help: "Package versions processed, by outcome",
			},
			[]string{"package", "outcome"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cdnsync_last_run_timestamp_seconds",
				Help: "Unix time of the last completed resolution run",
			},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(kind string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.requestCount.WithLabelValues(kind, status).Inc()
	m.requestDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) VersionOutcome(pkg, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.versionCount.WithLabelValues(pkg, outcome).Add(float64(n))
}

func (m *Metrics) MarkRun() {
	if m == nil {
		return
	}
	m.lastRun.SetToCurrentTime()
}

/**
 * Push collected metrics to a Prometheus pushgateway
 * @param {string} addr - Pushgateway address
 * @returns {error} Push error, nil when addr is empty
 */
func (m *Metrics) Push(ctx context.Context, addr string) error {
	if m == nil || addr == "" {
		return nil
	}
	return push.New(addr, "cdnsync").Gatherer(m.registry).PushContext(ctx)
}
