package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded by the client.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeStatus    = "status"
	OutcomeDecode    = "decode"
	OutcomeCancelled = "cancelled"
)

// Metrics bundles Prometheus collectors for the API client.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheHitsTotal  prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookdash_api_requests_total",
			Help: "Total API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookdash_api_request_duration_seconds",
			Help:    "API request latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookdash_api_cache_hits_total",
			Help: "Book listing requests served from the page cache.",
		},
	)

	registry.MustRegister(requests, duration, cacheHits)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: duration,
		CacheHitsTotal:  cacheHits,
	}
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// Summary is a flattened view of the collected metrics for display.
type Summary struct {
	Requests   int
	Errors     int
	CacheHits  int
	AvgLatency time.Duration
}

// Summary gathers the registry into totals.
func (m *Metrics) Summary() Summary {
	var s Summary
	if m == nil {
		return s
	}

	families, err := m.Registry.Gather()
	if err != nil {
		return s
	}

	var latencySum float64
	var latencyCount uint64
	for _, mf := range families {
		switch mf.GetName() {
		case "bookdash_api_requests_total":
			for _, metric := range mf.GetMetric() {
				n := int(metric.GetCounter().GetValue())
				s.Requests += n
				for _, lp := range metric.GetLabel() {
					if lp.GetName() == "outcome" && lp.GetValue() != OutcomeOK {
						s.Errors += n
					}
				}
			}
		case "bookdash_api_request_duration_seconds":
			for _, metric := range mf.GetMetric() {
				latencySum += metric.GetHistogram().GetSampleSum()
				latencyCount += metric.GetHistogram().GetSampleCount()
			}
		case "bookdash_api_cache_hits_total":
			for _, metric := range mf.GetMetric() {
				s.CacheHits += int(metric.GetCounter().GetValue())
			}
		}
	}

	if latencyCount > 0 {
		s.AvgLatency = time.Duration(latencySum / float64(latencyCount) * float64(time.Second))
	}
	return s
}
