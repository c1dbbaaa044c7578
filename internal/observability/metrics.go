package observability

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Snapshot store operation rate by operation and outcome.
	StoreOpsTotal *prometheus.CounterVec

	// Snapshot store operation latency. Watch for: backend degradation.
	StoreOpDuration *prometheus.HistogramVec

	// Upstream geo provider call rate by provider and status.
	ProviderCallsTotal *prometheus.CounterVec

	// Upstream geo provider latency. Watch for: p95 > 2s (upstream degradation).
	ProviderCallDuration *prometheus.HistogramVec

	// Retry attempts against geo providers. High retries = unstable upstream.
	ProviderRetriesTotal *prometheus.CounterVec

	// Cache hits by cache type (country, weather, airquality).
	CacheHitsTotal *prometheus.CounterVec

	// Cache backend errors by operation.
	CacheErrorsTotal *prometheus.CounterVec

	// Cache warming pass rate.
	CacheWarmingTotal prometheus.Counter

	// Cache warming passes with at least one failed country.
	CacheWarmingErrorsTotal prometheus.Counter

	// Cache warming pass latency.
	CacheWarmingDurationSeconds prometheus.Histogram

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Deletes currently inside their grace window.
	PendingDeletesGauge prometheus.Gauge

	// Pending deletes that committed to the store.
	DeleteCommittedTotal prometheus.Counter

	// Pending deletes canceled by an undo.
	DeleteUndoneTotal prometheus.Counter

	// Commits that failed after the grace window. Each one is a client/server
	// consistency gap until the owner's next list refresh.
	DeleteCommitFailedTotal prometheus.Counter

	// Geo lookups by country (allow-list; others go to "other").
	GeoQueriesByCountryTotal *prometheus.CounterVec

	// trackedCountries is built from config; used to resolve the country
	// label without unbounded cardinality.
	trackedCountriesMu sync.RWMutex
	trackedCountries   map[string]struct{}
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	StoreOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeOpsTotal",
			Help: "Total number of snapshot store operations",
		},
		[]string{"op", "outcome"},
	)
	StoreOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storeOpDurationSeconds",
			Help:    "Snapshot store operation latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"op"},
	)
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerCallsTotal",
			Help: "Total number of geo provider API calls",
		},
		[]string{"provider", "status"},
	)
	ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "providerCallDurationSeconds",
			Help:    "Geo provider API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "status"},
	)
	ProviderRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerRetriesTotal",
			Help: "Total number of retry attempts against geo providers",
		},
		[]string{"provider"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of geo cache hits by cache type",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Total number of cache backend errors by operation",
		},
		[]string{"op"},
	)
	CacheWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingTotal",
			Help: "Total number of cache warming passes",
		},
	)
	CacheWarmingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingErrorsTotal",
			Help: "Cache warming passes with at least one failed country",
		},
	)
	CacheWarmingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cacheWarmingDurationSeconds",
			Help:    "Cache warming pass latency in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	PendingDeletesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pendingDeletes",
			Help: "Snapshot deletes currently inside their undo grace window",
		},
	)
	DeleteCommittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deleteCommittedTotal",
			Help: "Pending deletes committed to the store after the grace window",
		},
	)
	DeleteUndoneTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deleteUndoneTotal",
			Help: "Pending deletes canceled by an undo inside the grace window",
		},
	)
	DeleteCommitFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deleteCommitFailedTotal",
			Help: "Pending delete commits that failed against the store",
		},
	)
	GeoQueriesByCountryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoQueriesByCountryTotal",
			Help: "Geo lookups by country (allow-list; others use country=other)",
		},
		[]string{"country"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		StoreOpsTotal, StoreOpDuration,
		ProviderCallsTotal, ProviderCallDuration, ProviderRetriesTotal,
		CacheHitsTotal, CacheErrorsTotal,
		CacheWarmingTotal, CacheWarmingErrorsTotal, CacheWarmingDurationSeconds,
		RateLimitDeniedTotal,
		PendingDeletesGauge, DeleteCommittedTotal, DeleteUndoneTotal, DeleteCommitFailedTotal,
		GeoQueriesByCountryTotal,
	)
}

// SetTrackedCountries sets the allow-list for country metrics. Non-tracked
// countries increment "other".
func SetTrackedCountries(countries []string) {
	trackedCountriesMu.Lock()
	defer trackedCountriesMu.Unlock()
	trackedCountries = make(map[string]struct{}, len(countries))
	for _, c := range countries {
		trackedCountries[normalizeCountryForMetrics(c)] = struct{}{}
	}
}

// RecordGeoQuery records a geo lookup for the given country.
func RecordGeoQuery(country string) {
	c := normalizeCountryForMetrics(country)
	trackedCountriesMu.RLock()
	_, ok := trackedCountries[c] // nil map read is safe in Go
	trackedCountriesMu.RUnlock()
	if ok {
		GeoQueriesByCountryTotal.WithLabelValues(c).Inc()
	} else {
		GeoQueriesByCountryTotal.WithLabelValues("other").Inc()
	}
}

func normalizeCountryForMetrics(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MetricsHandler returns an http.Handler that serves application and runtime
// metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
