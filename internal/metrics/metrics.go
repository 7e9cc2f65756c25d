package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests   *prometheus.CounterVec
	LatencyMS  *prometheus.HistogramVec
	Checkouts  *prometheus.CounterVec
	CheckoutMS prometheus.Histogram
	Payments   prometheus.Counter
	OutboxSent prometheus.Counter
	registry   prometheus.Registerer
	gatherer   prometheus.Gatherer
}

var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// New registers the collectors on reg. Pass nil to use the default registry.
func New(reg *prometheus.Registry) *ServerMetrics {
	m := &ServerMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pos",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   latencyBuckets,
		}, []string{"handler"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "checkouts_total",
			Help:      "Checkouts by outcome (committed, replayed or the error kind).",
		}, []string{"outcome"}),
		CheckoutMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pos",
			Name:      "checkout_duration_ms",
			Help:      "Checkout latency in milliseconds, commit or abort.",
			Buckets:   latencyBuckets,
		}),
		Payments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "payments_total",
			Help:      "Manual customer payments recorded.",
		}),
		OutboxSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "outbox_events_sent_total",
			Help:      "Outbox events delivered to the broker.",
		}),
	}

	if reg == nil {
		m.registry, m.gatherer = prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	} else {
		m.registry, m.gatherer = reg, reg
	}
	m.registry.MustRegister(m.Requests, m.LatencyMS, m.Checkouts, m.CheckoutMS, m.Payments, m.OutboxSent)
	return m
}

// ObserveCheckout records one checkout attempt.
func (m *ServerMetrics) ObserveCheckout(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(outcome).Inc()
	m.CheckoutMS.Observe(float64(time.Since(started).Milliseconds()))
}

func (m *ServerMetrics) PaymentRecorded() {
	if m == nil {
		return
	}
	m.Payments.Inc()
}

func (m *ServerMetrics) EventsSent(n int) {
	if m == nil || n == 0 {
		return
	}
	m.OutboxSent.Add(float64(n))
}

// Middleware counts requests by route template, so ids in paths don't
// explode label cardinality.
func (m *ServerMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		m.Requests.WithLabelValues(handler, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
