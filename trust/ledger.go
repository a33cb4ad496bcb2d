package trust

import (
	"cmp"
	"math"
	"slices"
	"sync"

	xlogger "github.com/go-gost/blackhole/logger"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/core/logger"
)

const (
	// InitialScore is assigned on first observation of a node.
	InitialScore = 1.0
	// DropPenalty is deducted when a packet towards a node is dropped.
	DropPenalty = 0.2
	// ForwardReward is added when a packet towards a node is forwarded.
	ForwardReward = 0.1
	// BlacklistThreshold: a node is blacklisted once its score falls below it.
	BlacklistThreshold = 0.3
	// RecoveryThreshold: a blacklisted node is released once its score reaches it.
	RecoveryThreshold = 0.6

	// scores are kept on this grid so that repeated deltas land on the threshold values.
	precision = 1e9
)

type Outcome int

const (
	Dropped Outcome = iota
	Forwarded
)

func (o Outcome) String() string {
	if o == Dropped {
		return "dropped"
	}
	return "forwarded"
}

// Observer is notified of every score change and blacklist transition.
type Observer interface {
	OnScore(id routing.NodeID, score float64)
	OnBlacklist(id routing.NodeID, blacklisted bool)
}

type Entry struct {
	ID    routing.NodeID `json:"node"`
	Score float64        `json:"score"`
}

// Snapshot is a point in time copy of a ledger, ordered by node ID.
type Snapshot struct {
	Scores    []Entry          `json:"scores"`
	Blacklist []routing.NodeID `json:"blacklist"`
}

type options struct {
	observer Observer
	logger   logger.Logger
}

type Option func(opts *options)

func ObserverOption(observer Observer) Option {
	return func(opts *options) {
		opts.observer = observer
	}
}

func LoggerOption(logger logger.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// Ledger keeps a trust score per known node and the blacklist derived from
// the score history.
//
// Blacklist membership has hysteresis: a node enters the blacklist when its
// score drops below BlacklistThreshold and leaves it only once the score is
// back at or above RecoveryThreshold.
type Ledger struct {
	scores    map[routing.NodeID]float64
	blacklist map[routing.NodeID]struct{}
	options   options
	mu        sync.RWMutex
}

func NewLedger(opts ...Option) *Ledger {
	var options options
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = xlogger.Nop()
	}

	return &Ledger{
		scores:    make(map[routing.NodeID]float64),
		blacklist: make(map[routing.NodeID]struct{}),
		options:   options,
	}
}

// Init sets the score of nodes 0..totalNodes-1 to InitialScore.
// It must be called before the first update.
func (l *Ledger) Init(totalNodes int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < totalNodes; i++ {
		l.scores[routing.NodeID(i)] = InitialScore
	}
	l.options.logger.Debugf("trust scores initialized for %d nodes", totalNodes)
}

// Score returns the score of id, InitialScore if id has never been seen.
func (l *Ledger) Score(id routing.NodeID) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if v, ok := l.scores[id]; ok {
		return v
	}
	return InitialScore
}

func (l *Ledger) IsBlacklisted(id routing.NodeID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.blacklist[id]
	return ok
}

// Update applies the outcome of one forwarding decision to the score of id
// and re-evaluates its blacklist membership. It returns the new score.
func (l *Ledger) Update(id routing.NodeID, outcome Outcome) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	score, ok := l.scores[id]
	if !ok {
		score = InitialScore
	}

	if outcome == Dropped {
		score -= DropPenalty
	} else {
		score += ForwardReward
	}
	score = math.Round(score*precision) / precision
	score = math.Min(math.Max(score, 0), 1)
	l.scores[id] = score

	l.options.logger.Debugf("node %d %s, trust score %g", id, outcome, score)
	if l.options.observer != nil {
		l.options.observer.OnScore(id, score)
	}

	_, blacklisted := l.blacklist[id]
	switch {
	case score < BlacklistThreshold && !blacklisted:
		l.blacklist[id] = struct{}{}
		l.options.logger.Infof("node %d added to blacklist, trust score %g", id, score)
		if l.options.observer != nil {
			l.options.observer.OnBlacklist(id, true)
		}
	case score >= RecoveryThreshold && blacklisted:
		delete(l.blacklist, id)
		l.options.logger.Infof("node %d removed from blacklist, trust score %g", id, score)
		if l.options.observer != nil {
			l.options.observer.OnBlacklist(id, false)
		}
	}

	return score
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := Snapshot{
		Scores:    make([]Entry, 0, len(l.scores)),
		Blacklist: make([]routing.NodeID, 0, len(l.blacklist)),
	}
	for id, score := range l.scores {
		snap.Scores = append(snap.Scores, Entry{ID: id, Score: score})
	}
	for id := range l.blacklist {
		snap.Blacklist = append(snap.Blacklist, id)
	}

	slices.SortFunc(snap.Scores, func(a, b Entry) int {
		return cmp.Compare(a.ID, b.ID)
	})
	slices.Sort(snap.Blacklist)

	return snap
}

// Len returns the number of tracked nodes.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.scores)
}
