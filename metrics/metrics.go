// Package metrics 定义服务的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 上游名称
const (
	UpstreamEvents     = "events"
	UpstreamSimilarity = "similarity"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recs_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recs_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recs_upstream_requests_total",
			Help: "Total number of upstream calls by upstream and outcome",
		},
		[]string{"upstream", "outcome"}, // outcome: ok, error, malformed
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recs_upstream_duration_seconds",
			Help:    "Upstream call latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"upstream"},
	)

	OfflineLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recs_offline_lookups_total",
			Help: "Offline store lookups by namespace (personal or default)",
		},
		[]string{"namespace"},
	)

	ListLength = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recs_list_length",
			Help:    "Length of recommendation lists produced per endpoint",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 200, 500},
		},
		[]string{"endpoint"},
	)
)

// RecordUpstream 记录一次上游调用的耗时与结果。
func RecordUpstream(upstream, outcome string, d time.Duration) {
	UpstreamRequests.WithLabelValues(upstream, outcome).Inc()
	UpstreamDuration.WithLabelValues(upstream).Observe(d.Seconds())
}

// RecordHTTP 记录一次 HTTP 请求。
func RecordHTTP(route, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(route, status).Inc()
	HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
