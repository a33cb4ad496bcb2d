package sim

import (
	"context"
	"time"

	xlogger "github.com/go-gost/blackhole/logger"
	"github.com/go-gost/blackhole/recorder"
	"github.com/go-gost/core/logger"
	"github.com/go-gost/core/observer"
)

const DefaultExportInterval = 5 * time.Second

// Exporter periodically appends every node's trust view to the telemetry
// file and refreshes the global view. It re-arms itself after each round,
// whether or not the writes succeeded.
type Exporter struct {
	Recorder   *recorder.TrustRecorder
	Aggregator *Aggregator
	// Observer receives the forwarding counters of the nodes whose
	// counters moved since the previous round.
	Observer   observer.Observer
	Interval   time.Duration
	Logger     logger.Logger

	rounds int
}

func (e *Exporter) Start(ctx context.Context, sched *Scheduler, network *Network) {
	if e.Interval <= 0 {
		e.Interval = DefaultExportInterval
	}
	if e.Logger == nil {
		e.Logger = xlogger.Nop()
	}
	sched.Schedule(e.Interval, func() {
		e.export(ctx, sched, network)
	})
}

// Rounds returns the number of export rounds run so far.
func (e *Exporter) Rounds() int {
	return e.rounds
}

func (e *Exporter) export(ctx context.Context, sched *Scheduler, network *Network) {
	e.rounds++
	e.Logger.Debugf("exporting trust scores at %s", sched.Now())

	if e.Recorder != nil {
		for _, node := range network.Nodes() {
			snap, ok := node.Snapshot()
			if !ok || (len(snap.Scores) == 0 && len(snap.Blacklist) == 0) {
				continue
			}
			if err := e.Recorder.Export(ctx, sched.Now(), snap); err != nil {
				e.Logger.Warnf("node %d: %v", node.ID(), err)
			}
		}
	}
	if e.Aggregator != nil {
		e.Aggregator.Merge(network.Nodes())
	}
	if e.Observer != nil {
		e.observe(ctx, network)
	}

	sched.Schedule(e.Interval, func() {
		e.export(ctx, sched, network)
	})
}

func (e *Exporter) observe(ctx context.Context, network *Network) {
	var events []observer.Event
	for _, node := range network.Nodes() {
		if st := node.Stats(); st != nil && st.IsUpdated() {
			events = append(events, st.Event(node.Name()))
		}
	}
	if len(events) == 0 {
		return
	}
	if err := e.Observer.Observe(ctx, events); err != nil {
		e.Logger.Warnf("observe: %v", err)
	}
}
