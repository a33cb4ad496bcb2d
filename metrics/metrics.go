package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/go-gost/core/metrics"
)

const (
	// Total forwarding decisions. Labels: host, node, outcome.
	MetricDecisionsCounter metrics.MetricName = "blackhole_decisions_total"
	// Total decisions that failed. Labels: host, node, reason.
	MetricErrorsCounter metrics.MetricName = "blackhole_errors_total"
	// Current trust score a node holds for a peer. Labels: host, node, peer.
	MetricTrustScoreGauge metrics.MetricName = "blackhole_trust_score"
	// Number of blacklisted peers. Labels: host, node.
	MetricBlacklistSizeGauge metrics.MetricName = "blackhole_blacklist_size"
	// Blacklist additions and removals. Labels: host, node, action.
	MetricBlacklistTransitionsCounter metrics.MetricName = "blackhole_blacklist_transitions_total"
	// Telemetry rows written. Labels: host, recorder.
	MetricTelemetryRecordsCounter metrics.MetricName = "blackhole_telemetry_records_total"
	// Telemetry export duration. Labels: host, recorder.
	MetricTelemetryExportDurationObserver metrics.MetricName = "blackhole_telemetry_export_duration_seconds"
)

var (
	defaultMetrics metrics.Metrics
	initOnce       sync.Once
	enabled        atomic.Bool
)

// Enable switches between the prometheus backend and the noop one.
// Collectors are registered on first enable.
func Enable(b bool) {
	if b {
		initOnce.Do(func() {
			defaultMetrics = NewMetrics()
		})
	}
	enabled.Store(b)
}

func IsEnabled() bool {
	return enabled.Load()
}

func GetCounter(name metrics.MetricName, labels metrics.Labels) metrics.Counter {
	if IsEnabled() {
		if c := defaultMetrics.Counter(name, labels); c != nil {
			return c
		}
	}
	return noop.Counter(name, labels)
}

func GetGauge(name metrics.MetricName, labels metrics.Labels) metrics.Gauge {
	if IsEnabled() {
		if g := defaultMetrics.Gauge(name, labels); g != nil {
			return g
		}
	}
	return noop.Gauge(name, labels)
}

func GetObserver(name metrics.MetricName, labels metrics.Labels) metrics.Observer {
	if IsEnabled() {
		if o := defaultMetrics.Observer(name, labels); o != nil {
			return o
		}
	}
	return noop.Observer(name, labels)
}
