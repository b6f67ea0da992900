package dedup

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus metrics for the engine.
type Metrics struct {
	requestsTotal     prometheus.Gauge
	deduplicatedTotal prometheus.Gauge
	cacheHitsTotal    prometheus.Gauge
	cacheMissesTotal  prometheus.Gauge
	hitRate           prometheus.Gauge
	deduplicationRate prometheus.Gauge
}

// NewMetricsWithRegisterer creates a new Metrics instance with a custom
// registerer. Pass nil to skip metrics registration (useful for tests).
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests seen by the engine",
		}),
		deduplicatedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deduplicated_total",
			Help:      "Total number of requests that waited on an in-flight execution",
		}),
		cacheHitsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of result cache hits",
		}),
		cacheMissesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of result cache misses",
		}),
		hitRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hit_rate",
			Help:      "Cache hit rate in percent",
		}),
		deduplicationRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deduplication_rate",
			Help:      "Deduplicated request rate in percent",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.requestsTotal,
			m.deduplicatedTotal,
			m.cacheHitsTotal,
			m.cacheMissesTotal,
			m.hitRate,
			m.deduplicationRate,
		)
	}

	return m
}

// Observe copies a stats snapshot into the gauges.
func (m *Metrics) Observe(st Stats) {
	m.requestsTotal.Set(float64(st.TotalRequests))
	m.deduplicatedTotal.Set(float64(st.Deduplicated))
	m.cacheHitsTotal.Set(float64(st.CacheHits))
	m.cacheMissesTotal.Set(float64(st.CacheMisses))
	m.hitRate.Set(st.HitRate)
	m.deduplicationRate.Set(st.DeduplicationRate)
}

// startCrons starts periodic metrics updates
func (d *Deduplicator) startCrons(_ context.Context) error {
	c := gocron.NewScheduler(time.Local)

	if _, err := c.Every("5s").Do(func() {
		d.metrics.Observe(d.stats.snapshot())
	}); err != nil {
		return err
	}

	c.StartAsync()

	d.crons = c

	return nil
}

func (d *Deduplicator) stopCrons() {
	if d.crons != nil {
		d.crons.Stop()
	}
}
