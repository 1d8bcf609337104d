package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// runMetrics holds Prometheus metrics for the line-processing loop.
type runMetrics struct {
	lines            prometheus.Counter
	checksumFailures prometheus.Counter
	malformed        prometheus.Counter
	skipped          prometheus.Counter
	channelFiltered  prometheus.Counter
	payloads         prometheus.Counter
	records          prometheus.Counter
	batches          prometheus.Counter
}

// newRunMetrics creates and registers loop metrics with the provided registry.
func newRunMetrics(registry prometheus.Registerer) (*runMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "purais",
			Subsystem: "pipeline",
			Name:      name,
			Help:      help,
		})
	}

	m := &runMetrics{
		lines:            counter("lines_total", "Total number of input lines read"),
		checksumFailures: counter("checksum_failures_total", "Total number of lines rejected for a bad checksum"),
		malformed:        counter("malformed_total", "Total number of AIVDM lines rejected for field shape"),
		skipped:          counter("skipped_total", "Total number of non-AIVDM lines skipped"),
		channelFiltered:  counter("channel_filtered_total", "Total number of sentences dropped by the channel restriction"),
		payloads:         counter("payloads_total", "Total number of payloads completed by reassembly"),
		records:          counter("records_total", "Total number of records emitted"),
		batches:          counter("batches_total", "Total number of non-empty batches written"),
	}

	for _, c := range []prometheus.Collector{
		m.lines, m.checksumFailures, m.malformed, m.skipped,
		m.channelFiltered, m.payloads, m.records, m.batches,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}
