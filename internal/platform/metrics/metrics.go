package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP and rate limit metrics shared by every route.
type Metrics struct {
	RequestDuration   *prometheus.HistogramVec
	RateLimitDecision *prometheus.CounterVec
	RateLimitDegraded prometheus.Gauge
}

// New creates and registers the platform metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grantapp_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"route", "method", "status"}),
		RateLimitDecision: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grantapp_ratelimit_decisions_total",
			Help: "Rate limit checks by result (allowed, limited, error)",
		}, []string{"result"}),
		RateLimitDegraded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "grantapp_ratelimit_degraded",
			Help: "1 while the shared rate limit store is bypassed for the in-memory fallback",
		}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

// IncrementRateLimitDecision counts a limiter result.
func (m *Metrics) IncrementRateLimitDecision(result string) {
	if m == nil {
		return
	}
	m.RateLimitDecision.WithLabelValues(result).Inc()
}

// SetRateLimitDegraded flags fallback mode.
func (m *Metrics) SetRateLimitDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.RateLimitDegraded.Set(1)
		return
	}
	m.RateLimitDegraded.Set(0)
}

// Handler exposes gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
