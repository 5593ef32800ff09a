package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	AnalyticsQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "insights_analytics_query_duration_seconds",
		Help:    "Duration of analytics store queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	MetricsCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_metrics_cache_total",
		Help: "Booking metrics cache lookups",
	}, []string{"result"})

	IngestMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_ingest_messages_total",
		Help: "Booking ingest outcomes",
	}, []string{"outcome"})

	CacheWarmRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insights_cache_warm_runs_total",
		Help: "Total cache warm runs",
	})
)
