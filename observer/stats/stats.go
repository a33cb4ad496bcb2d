package stats

import (
	"sync/atomic"

	"github.com/go-gost/core/observer"
)

type Kind int

const (
	KindForwarded Kind = iota + 1
	KindDropped
)

func (k Kind) String() string {
	switch k {
	case KindForwarded:
		return "forwarded"
	case KindDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Stats holds the lifetime packet counters of one node. They are reported,
// never consulted by the forwarding decision.
type Stats struct {
	updated   atomic.Bool
	forwarded atomic.Uint64
	dropped   atomic.Uint64
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) Add(kind Kind, n int64) {
	if s == nil || n <= 0 {
		return
	}
	switch kind {
	case KindForwarded:
		s.forwarded.Add(uint64(n))
	case KindDropped:
		s.dropped.Add(uint64(n))
	default:
		return
	}
	s.updated.Store(true)
}

func (s *Stats) Get(kind Kind) uint64 {
	if s == nil {
		return 0
	}

	switch kind {
	case KindForwarded:
		return s.forwarded.Load()
	case KindDropped:
		return s.dropped.Load()
	}
	return 0
}

func (s *Stats) Reset() {
	s.updated.Store(false)
	s.forwarded.Store(0)
	s.dropped.Store(0)
}

// IsUpdated reports whether a counter moved since the previous call.
func (s *Stats) IsUpdated() bool {
	return s.updated.Swap(false)
}

type StatsEvent struct {
	Node      string `json:"node"`
	Forwarded uint64 `json:"forwarded"`
	Dropped   uint64 `json:"dropped"`
}

func (StatsEvent) Type() observer.EventType {
	return observer.EventStats
}

func (s *Stats) Event(node string) StatsEvent {
	return StatsEvent{
		Node:      node,
		Forwarded: s.Get(KindForwarded),
		Dropped:   s.Get(KindDropped),
	}
}
