package georef

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	cache       *prometheus.CounterVec
	retries     *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	limiterWait prometheus.Histogram
}

// NewMetrics creates the client collectors and registers them on reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "georef",
				Name:      "requests_total",
				Help:      "Outbound Georef API attempts by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "georef",
				Name:      "cache_lookups_total",
				Help:      "Response cache lookups by operation and result (hit, miss).",
			},
			[]string{"operation", "result"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "georef",
				Name:      "retries_total",
				Help:      "Retries scheduled by operation and failure kind.",
			},
			[]string{"operation", "kind"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "georef",
				Name:      "fallbacks_total",
				Help:      "Responses served from the bundled dataset by operation.",
			},
			[]string{"operation"},
		),
		limiterWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "georef",
			Name:      "rate_limiter_wait_seconds",
			Help:      "Time spent waiting for the rate limiter before a request.",
			Buckets:   []float64{0, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
	// Zero-valued series per operation so dashboards see every lookup
	// before its first request.
	for _, op := range Operations {
		m.fallbacks.WithLabelValues(string(op))
		m.cache.WithLabelValues(string(op), "hit")
		m.cache.WithLabelValues(string(op), "miss")
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.cache, m.retries, m.fallbacks, m.limiterWait)
	}
	return m
}

func (m *Metrics) observeRequest(op Operation, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(op), outcome).Inc()
}

func (m *Metrics) observeCache(op Operation, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(string(op), result).Inc()
}

func (m *Metrics) observeRetry(op Operation, kind string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(string(op), kind).Inc()
}

func (m *Metrics) observeFallback(op Operation) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(string(op)).Inc()
}

func (m *Metrics) observeWait(d time.Duration) {
	if m == nil {
		return
	}
	m.limiterWait.Observe(d.Seconds())
}
