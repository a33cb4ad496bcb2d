package metrics

import "github.com/go-gost/core/metrics"

var (
	nopMetric                 = nop{}
	noop      metrics.Metrics = noopMetrics{}
)

// Noop returns a metrics backend that records nothing.
func Noop() metrics.Metrics {
	return noop
}

type noopMetrics struct{}

func (noopMetrics) Counter(metrics.MetricName, metrics.Labels) metrics.Counter   { return nopMetric }
func (noopMetrics) Gauge(metrics.MetricName, metrics.Labels) metrics.Gauge       { return nopMetric }
func (noopMetrics) Observer(metrics.MetricName, metrics.Labels) metrics.Observer { return nopMetric }

// nop satisfies every metric kind.
type nop struct{}

func (nop) Inc()            {}
func (nop) Dec()            {}
func (nop) Add(float64)     {}
func (nop) Set(float64)     {}
func (nop) Observe(float64) {}
