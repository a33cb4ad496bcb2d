package metrics

import (
	"os"

	"github.com/go-gost/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type promMetrics struct {
	host       string
	gauges     map[metrics.MetricName]*prometheus.GaugeVec
	counters   map[metrics.MetricName]*prometheus.CounterVec
	histograms map[metrics.MetricName]*prometheus.HistogramVec
}

// NewMetrics creates the prometheus collectors and registers them with the
// default registerer.
func NewMetrics() metrics.Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

func newMetrics(reg prometheus.Registerer) *promMetrics {
	host, _ := os.Hostname()
	m := &promMetrics{
		host: host,
		gauges: map[metrics.MetricName]*prometheus.GaugeVec{
			MetricTrustScoreGauge: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: string(MetricTrustScoreGauge),
					Help: "Current trust score a node holds for a peer",
				},
				[]string{"host", "node", "peer"}),
			MetricBlacklistSizeGauge: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: string(MetricBlacklistSizeGauge),
					Help: "Current number of blacklisted peers",
				},
				[]string{"host", "node"}),
		},
		counters: map[metrics.MetricName]*prometheus.CounterVec{
			MetricDecisionsCounter: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: string(MetricDecisionsCounter),
					Help: "Total number of forwarding decisions",
				},
				[]string{"host", "node", "outcome"}),
			MetricErrorsCounter: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: string(MetricErrorsCounter),
					Help: "Total number of failed forwarding decisions",
				},
				[]string{"host", "node", "reason"}),
			MetricBlacklistTransitionsCounter: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: string(MetricBlacklistTransitionsCounter),
					Help: "Total number of blacklist additions and removals",
				},
				[]string{"host", "node", "action"}),
			MetricTelemetryRecordsCounter: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: string(MetricTelemetryRecordsCounter),
					Help: "Total number of telemetry rows written",
				},
				[]string{"host", "recorder"}),
		},
		histograms: map[metrics.MetricName]*prometheus.HistogramVec{
			MetricTelemetryExportDurationObserver: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name: string(MetricTelemetryExportDurationObserver),
					Help: "Distribution of telemetry export latencies",
					Buckets: []float64{
						.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1,
					},
				},
				[]string{"host", "recorder"}),
		},
	}
	for k := range m.gauges {
		reg.MustRegister(m.gauges[k])
	}
	for k := range m.counters {
		reg.MustRegister(m.counters[k])
	}
	for k := range m.histograms {
		reg.MustRegister(m.histograms[k])
	}

	return m
}

func (m *promMetrics) Gauge(name metrics.MetricName, labels metrics.Labels) metrics.Gauge {
	v, ok := m.gauges[name]
	if !ok {
		return nil
	}
	return v.With(m.labels(labels))
}

func (m *promMetrics) Counter(name metrics.MetricName, labels metrics.Labels) metrics.Counter {
	v, ok := m.counters[name]
	if !ok {
		return nil
	}
	return v.With(m.labels(labels))
}

func (m *promMetrics) Observer(name metrics.MetricName, labels metrics.Labels) metrics.Observer {
	v, ok := m.histograms[name]
	if !ok {
		return nil
	}
	return v.With(m.labels(labels))
}

func (m *promMetrics) labels(labels metrics.Labels) prometheus.Labels {
	l := prometheus.Labels{"host": m.host}
	for k, v := range labels {
		l[k] = v
	}
	return l
}
