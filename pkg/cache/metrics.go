package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// windowedMetrics holds Prometheus metrics for buffer operations.
type windowedMetrics struct {
	inserts      prometheus.Counter
	drained      prometheus.Counter
	evictions    prometheus.Counter
	droppedStale prometheus.Counter
	size         prometheus.Gauge
}

// newWindowedMetrics creates and registers buffer metrics with the provided registry.
func newWindowedMetrics(registry prometheus.Registerer, prefix string) (*windowedMetrics, error) {
	m := &windowedMetrics{
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "purais",
			Subsystem:   "cache",
			Name:        "inserts_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of payloads inserted into the buffer",
		}),
		drained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "purais",
			Subsystem:   "cache",
			Name:        "drained_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of payloads released by drains",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "purais",
			Subsystem:   "cache",
			Name:        "evictions_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of payloads evicted at the size cap",
		}),
		droppedStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "purais",
			Subsystem:   "cache",
			Name:        "dropped_stale_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of payloads dropped for staleness",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "purais",
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of buffered payloads",
		}),
	}

	for _, c := range []prometheus.Collector{m.inserts, m.drained, m.evictions, m.droppedStale, m.size} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *windowedMetrics) recordInsert() {
	m.inserts.Inc()
}

func (m *windowedMetrics) recordDrain(n int) {
	m.drained.Add(float64(n))
}

func (m *windowedMetrics) recordEviction() {
	m.evictions.Inc()
}

func (m *windowedMetrics) recordDroppedStale(n int) {
	m.droppedStale.Add(float64(n))
}

func (m *windowedMetrics) updateSize(size int) {
	m.size.Set(float64(size))
}
