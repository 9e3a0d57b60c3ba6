// Package metrics exports release engine, cache and registry HTTP events
// as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/releasetower/pkg/observability"
)

// Collector implements the lookup, cache and HTTP hooks of
// [observability] on top of a private Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	lookups         *prometheus.CounterVec
	lookupDuration  *prometheus.HistogramVec
	lookupReleases  *prometheus.HistogramVec
	registryFailure *prometheus.CounterVec
	cacheEvents     *prometheus.CounterVec
	cacheBytes      *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpErrors      *prometheus.CounterVec
}

// New creates a Collector with all metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "releasetower_lookups_total",
				Help: "Number of release lookups by datasource and outcome.",
			},
			[]string{"datasource", "outcome"},
		),
		lookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "releasetower_lookup_duration_seconds",
				Help:    "Time taken to resolve the releases of a package.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"datasource"},
		),
		lookupReleases: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "releasetower_lookup_releases",
				Help:    "Number of releases returned per lookup.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 7),
			},
			[]string{"datasource"},
		),
		registryFailure: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "releasetower_registry_failures_total",
				Help: "Number of failed registry queries by failure kind.",
			},
			[]string{"datasource", "kind"},
		),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "releasetower_cache_events_total",
				Help: "Number of response cache hits, misses and writes.",
			},
			[]string{"type", "event"},
		),
		cacheBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "releasetower_cache_written_bytes_total",
				Help: "Bytes written to the response cache.",
			},
			[]string{"type"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "releasetower_http_requests_total",
				Help: "Number of registry HTTP responses by host and status.",
			},
			[]string{"host", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "releasetower_http_request_duration_seconds",
				Help:    "Registry HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"host"},
		),
		httpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "releasetower_http_errors_total",
				Help: "Number of registry HTTP requests that failed without a response.",
			},
			[]string{"host"},
		),
	}
	c.registry.MustRegister(
		c.lookups,
		c.lookupDuration,
		c.lookupReleases,
		c.registryFailure,
		c.cacheEvents,
		c.cacheBytes,
		c.httpRequests,
		c.httpDuration,
		c.httpErrors,
	)
	return c
}

// Install registers c as the global lookup, cache and HTTP hooks.
func (c *Collector) Install() {
	observability.SetLookupHooks(c)
	observability.SetCacheHooks(c)
	observability.SetHTTPHooks(c)
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) OnLookupStart(context.Context, string, string) {}

func (c *Collector) OnLookupComplete(_ context.Context, datasource, _ string, releases int, d time.Duration, err error) {
	outcome := "found"
	switch {
	case err != nil:
		outcome = "error"
	case releases == 0:
		outcome = "empty"
	}
	c.lookups.WithLabelValues(datasource, outcome).Inc()
	c.lookupDuration.WithLabelValues(datasource).Observe(d.Seconds())
	if err == nil {
		c.lookupReleases.WithLabelValues(datasource).Observe(float64(releases))
	}
}

func (c *Collector) OnRegistryFailure(_ context.Context, datasource, _ string, kind string) {
	c.registryFailure.WithLabelValues(datasource, kind).Inc()
}

func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, keyType string, size int) {
	c.cacheEvents.WithLabelValues(keyType, "set").Inc()
	c.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (c *Collector) OnRequest(context.Context, string, string, string) {}

func (c *Collector) OnResponse(_ context.Context, _, host, _ string, statusCode int, d time.Duration) {
	c.httpRequests.WithLabelValues(host, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (c *Collector) OnError(_ context.Context, _, host, _ string, _ error) {
	c.httpErrors.WithLabelValues(host).Inc()
}
