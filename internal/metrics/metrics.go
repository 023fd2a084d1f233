package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics captures request metrics for the API.
type HTTPMetrics interface {
	ObserveRequest(method, route, status string, durationSeconds float64)
}

// RealtimeMetrics tracks live chat stream connections.
type RealtimeMetrics interface {
	ConnectionOpened()
	ConnectionClosed()
}

// Noop implements every metrics interface without emitting anything.
type Noop struct{}

func (Noop) ObserveRequest(string, string, string, float64) {}
func (Noop) ConnectionOpened()                               {}
func (Noop) ConnectionClosed()                               {}

// Prom implements the metrics interfaces with Prometheus collectors.
type Prom struct {
	gatherer        prometheus.Gatherer
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	wsConnections   prometheus.Gauge
}

// NewProm registers the collectors on a fresh registry with Go and process collectors.
func NewProm(namespace string) *Prom {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewPromWithRegistry(namespace, reg)
}

// NewPromWithRegistry registers the collectors on reg.
func NewPromWithRegistry(namespace string, reg *prometheus.Registry) *Prom {
	p := &Prom{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_stream_connections",
			Help:      "Open chat WebSocket connections on this instance",
		}),
	}
	reg.MustRegister(p.requests, p.requestDuration, p.wsConnections)
	return p
}

func (p *Prom) ObserveRequest(method, route, status string, durationSeconds float64) {
	p.requests.WithLabelValues(method, route, status).Inc()
	p.requestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

func (p *Prom) ConnectionOpened() { p.wsConnections.Inc() }
func (p *Prom) ConnectionClosed() { p.wsConnections.Dec() }

// Handler serves the registry in the Prometheus text format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}
