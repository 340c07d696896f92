// Package metrics exposes Prometheus collectors for the proxy routes and the token manager.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mplusd"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ProxyMetrics holds counters for proxied requests and token refreshes.
//
// A nil *ProxyMetrics is valid and records nothing.
type ProxyMetrics struct {
	RequestsTotal    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	TokenRefreshes   *prometheus.CounterVec
}

// NewProxyMetrics creates and registers proxy metrics on the given registry.
func NewProxyMetrics(reg prometheus.Registerer) *ProxyMetrics {
	m := &ProxyMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Total number of proxy requests by mode and response status.",
		}, []string{"mode", "status_code"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "upstream_duration_seconds",
			Help:      "Duration of outbound upstream fetches in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		TokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "refreshes_total",
			Help:      "Total number of token endpoint calls by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.RequestsTotal, m.UpstreamDuration, m.TokenRefreshes)
	return m
}

// ProxyRequest counts one finished proxy request.
func (m *ProxyMetrics) ProxyRequest(mode string, status int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(mode, strconv.Itoa(status)).Inc()
}

// UpstreamFetch observes how long an outbound fetch took.
func (m *ProxyMetrics) UpstreamFetch(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// TokenRefresh counts one token endpoint call.
func (m *ProxyMetrics) TokenRefresh(result string) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
}
