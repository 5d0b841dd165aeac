// Package prom exports dcache metrics as Prometheus collectors.
package prom

import (
	"github.com/karlseguin/dcache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements dcache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	purges  *prometheus.CounterVec
	removed *prometheus.CounterVec
	size    *prometheus.GaugeVec
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: constLabels,
		}),
		purges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "purges_total",
				Help:        "Capacity-triggered purge runs by strategy",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		removed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "purged_entries_total",
				Help:        "Entries removed by purges, by strategy",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		size: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "segment_entries",
				Help:        "Resident entries per segment, sampled after purges",
				ConstLabels: constLabels,
			},
			[]string{"segment"},
		),
	}
	reg.MustRegister(a.hits, a.misses, a.purges, a.removed, a.size)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Purge counts a purge run and the entries it removed, labeled by strategy.
func (a *Adapter) Purge(r dcache.PurgeReason, removed int) {
	label := reason(r)
	a.purges.WithLabelValues(label).Inc()
	a.removed.WithLabelValues(label).Add(float64(removed))
}

// Size updates the per-segment entry gauge.
func (a *Adapter) Size(segment string, entries int) {
	a.size.WithLabelValues(segment).Set(float64(entries))
}

// reason maps PurgeReason to a stable label value.
func reason(r dcache.PurgeReason) string {
	switch r {
	case dcache.PurgedExpired:
		return "expired"
	case dcache.PurgedClear:
		return "clear"
	case dcache.PurgedBlocking:
		return "blocking"
	default:
		return "fast"
	}
}

// Compile-time check: ensure Adapter implements dcache.Metrics.
var _ dcache.Metrics = (*Adapter)(nil)
