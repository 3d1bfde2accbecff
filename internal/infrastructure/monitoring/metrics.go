package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the token lifecycle.
type Metrics struct {
	LoginRequests    *prometheus.CounterVec
	RefreshRequests  *prometheus.CounterVec
	RefreshLatency   prometheus.Histogram
	TokenRevocations *prometheus.CounterVec
	ReuseDetected    prometheus.Counter
	SweeperRuns      prometheus.Counter
	SweeperRevoked   prometheus.Counter
	SweeperPurged    prometheus.Counter
}

// NewMetrics creates and registers the instruments on the default
// registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the instruments on the given registerer.
// Tests pass a fresh registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_login_requests_total",
				Help: "Total number of login requests.",
			},
			[]string{"result"},
		),
		RefreshRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_refresh_requests_total",
				Help: "Total number of token refresh requests.",
			},
			[]string{"result"},
		),
		RefreshLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "authgate_refresh_latency_seconds",
				Help:    "Latency of token refresh requests.",
				Buckets: prometheus.DefBuckets,
			},
		),
		TokenRevocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_token_revocations_total",
				Help: "Total number of refresh token revocations.",
			},
			[]string{"reason"},
		),
		ReuseDetected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "authgate_refresh_reuse_detected_total",
				Help: "Total number of detected refresh token reuse events.",
			},
		),
		SweeperRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "authgate_sweeper_runs_total",
				Help: "Total number of cleanup sweeper ticks.",
			},
		),
		SweeperRevoked: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "authgate_sweeper_revoked_total",
				Help: "Total number of expired tokens revoked by the sweeper.",
			},
		),
		SweeperPurged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "authgate_sweeper_purged_total",
				Help: "Total number of records hard-deleted past retention.",
			},
		),
	}
}

// RecordRefresh records the outcome and latency of a refresh request.
func (m *Metrics) RecordRefresh(result string, duration time.Duration) {
	m.RefreshRequests.WithLabelValues(result).Inc()
	m.RefreshLatency.Observe(duration.Seconds())
}
