package handler

import (
	xmetrics "github.com/go-gost/blackhole/metrics"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/core/metrics"
)

// ledgerObserver mirrors ledger changes into metrics.
type ledgerObserver struct {
	node string
}

func (o *ledgerObserver) OnScore(id routing.NodeID, score float64) {
	xmetrics.GetGauge(xmetrics.MetricTrustScoreGauge, metrics.Labels{
		"node": o.node,
		"peer": id.String(),
	}).Set(score)
}

func (o *ledgerObserver) OnBlacklist(id routing.NodeID, blacklisted bool) {
	action := "remove"
	if blacklisted {
		action = "add"
	}
	xmetrics.GetCounter(xmetrics.MetricBlacklistTransitionsCounter, metrics.Labels{
		"node":   o.node,
		"action": action,
	}).Inc()

	g := xmetrics.GetGauge(xmetrics.MetricBlacklistSizeGauge, metrics.Labels{
		"node": o.node,
	})
	if blacklisted {
		g.Inc()
	} else {
		g.Dec()
	}
}
