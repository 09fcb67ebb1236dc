package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// aggregation service.
type Metrics struct {
	// Upstream API metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: source={usgs,gdacs,firms,openweather,openmeteo,overpass}, outcome={success,error,fallback}
	UpstreamDuration *prometheus.HistogramVec // labels: source

	// Response cache metrics.
	CacheLookups *prometheus.CounterVec // labels: source, result={hit,miss}

	// Flood model and alerting metrics.
	PredictionsTotal prometheus.Counter
	AlertsGenerated  *prometheus.CounterVec // labels: severity={critical,severe,warning,watch}
	AlertsActive     prometheus.Gauge
	AlertsPublished  prometheus.Counter

	HTTPRequests *prometheus.CounterVec // labels: route, status
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_aid",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "alert_aid",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_aid",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by source and result.",
		}, []string{"source", "result"}),
		PredictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_aid",
			Name:      "flood_predictions_total",
			Help:      "Total flood risk predictions served.",
		}),
		AlertsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_aid",
			Name:      "alerts_generated_total",
			Help:      "Smart alerts generated by severity.",
		}, []string{"severity"}),
		AlertsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alert_aid",
			Name:      "alerts_active",
			Help:      "Currently active (unexpired, uncleared) alerts.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_aid",
			Name:      "alerts_published_total",
			Help:      "Alerts published to the Kafka sink.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_aid",
			Name:      "http_requests_total",
			Help:      "HTTP requests served by route and status code.",
		}, []string{"route", "status"}),
	}

	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
		m.PredictionsTotal,
		m.AlertsGenerated,
		m.AlertsActive,
		m.AlertsPublished,
		m.HTTPRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_aid", Name: "upstream_requests_total"}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "alert_aid", Name: "upstream_request_duration_seconds"}, []string{"source"}),
		CacheLookups:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_aid", Name: "cache_lookups_total"}, []string{"source", "result"}),
		PredictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "alert_aid", Name: "flood_predictions_total"}),
		AlertsGenerated:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_aid", Name: "alerts_generated_total"}, []string{"severity"}),
		AlertsActive:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "alert_aid", Name: "alerts_active"}),
		AlertsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "alert_aid", Name: "alerts_published_total"}),
		HTTPRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_aid", Name: "http_requests_total"}, []string{"route", "status"}),
	}
}
