package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricHTTPRequestsTotal     = "camplan_http_requests_total"
	MetricHTTPRequestDuration   = "camplan_http_request_duration_seconds"
	MetricStreamMessagesTotal   = "camplan_stream_messages_total"
	MetricStreamConnectionsOpen = "camplan_stream_connections"
)

// Metrics holds the Prometheus collectors of the server. All operations are
// safe for concurrent use.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	streamMessages      *prometheus.CounterVec
	streamConnections   prometheus.Gauge
}

// NewMetrics creates unregistered collectors; call Register before use.
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"method", "route", "status"},
		),
		streamMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricStreamMessagesTotal,
				Help: "Stream messages applied, by type and outcome",
			},
			[]string{"type", "result"},
		),
		streamConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricStreamConnectionsOpen,
				Help: "Open stream connections",
			},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.streamMessages,
		m.streamConnections,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

// IncStreamMessage counts one applied stream message.
func (m *Metrics) IncStreamMessage(msgType string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.streamMessages.WithLabelValues(msgType, result).Inc()
}
