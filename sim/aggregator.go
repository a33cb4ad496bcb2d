package sim

import (
	"cmp"
	"slices"
	"sync"

	xlogger "github.com/go-gost/blackhole/logger"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/blackhole/trust"
	"github.com/go-gost/core/logger"
)

// Aggregator merges the per-node trust views into one global view.
// When several nodes score the same peer the last node merged wins.
type Aggregator struct {
	scores map[routing.NodeID]float64
	log    logger.Logger
	mu     sync.RWMutex
}

func NewAggregator(log logger.Logger) *Aggregator {
	if log == nil {
		log = xlogger.Nop()
	}
	return &Aggregator{
		scores: make(map[routing.NodeID]float64),
		log:    log,
	}
}

// Merge folds the snapshots of nodes into the global view and returns the
// number of entries added or changed.
func (a *Aggregator) Merge(nodes []*Node) (changed int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, node := range nodes {
		snap, ok := node.Snapshot()
		if !ok {
			continue
		}
		for _, e := range snap.Scores {
			prev, ok := a.scores[e.ID]
			a.scores[e.ID] = e.Score
			switch {
			case !ok:
				changed++
				a.log.Debugf("node %d added with initial trust score %g", e.ID, e.Score)
			case prev != e.Score:
				changed++
				a.log.Infof("node %d trust score updated from %g to %g", e.ID, prev, e.Score)
			}
		}
	}
	return
}

func (a *Aggregator) Score(id routing.NodeID) (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	v, ok := a.scores[id]
	return v, ok
}

// Scores returns the global view ordered by node id.
func (a *Aggregator) Scores() []trust.Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries := make([]trust.Entry, 0, len(a.scores))
	for id, score := range a.scores {
		entries = append(entries, trust.Entry{ID: id, Score: score})
	}
	slices.SortFunc(entries, func(a, b trust.Entry) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return entries
}
