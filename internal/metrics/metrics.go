// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parking"

// Discard reasons.
const (
	ReasonInvalidPlate       = "invalid_plate"
	ReasonMalformedTimestamp = "malformed_timestamp"
	ReasonNegativeDuration   = "negative_duration"
	ReasonMalformedRecord    = "malformed_record"
)

type Collector struct {
	registry *prometheus.Registry

	ingested       *prometheus.CounterVec
	discarded      *prometheus.CounterVec
	rateFallbacks  prometheus.Counter
	reconcileTime  prometheus.Histogram
	sessionsParked prometheus.Gauge
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_events_ingested_total",
			Help:      "Scan events stored, by source.",
		}, []string{"source"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_events_discarded_total",
			Help:      "Scan events left out of reconciliation, by reason.",
		}, []string{"reason"}),
		rateFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_source_fallbacks_total",
			Help:      "Times the rate source failed and default rates were used.",
		}),
		reconcileTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Time spent reconciling the event log into sessions.",
			Buckets:   prometheus.DefBuckets,
		}),
		sessionsParked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_parked",
			Help:      "Sessions open after the latest reconciliation.",
		}),
	}

	reg.MustRegister(
		c.ingested,
		c.discarded,
		c.rateFallbacks,
		c.reconcileTime,
		c.sessionsParked,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ScansIngested(source string, n int) {
	if n <= 0 {
		return
	}
	c.ingested.WithLabelValues(source).Add(float64(n))
}

func (c *Collector) ScansDiscarded(reason string, n int) {
	if n <= 0 {
		return
	}
	c.discarded.WithLabelValues(reason).Add(float64(n))
}

func (c *Collector) RateFallback() {
	c.rateFallbacks.Inc()
}

func (c *Collector) ObserveReconcile(d time.Duration, parked int) {
	c.reconcileTime.Observe(d.Seconds())
	c.sessionsParked.Set(float64(parked))
}
