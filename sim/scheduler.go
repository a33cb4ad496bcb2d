package sim

import (
	"container/heap"
	"context"
	"time"
)

type event struct {
	at  time.Duration
	seq uint64
	fn  func()
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at == q[j].at {
		return q[i].seq < q[j].seq
	}
	return q[i].at < q[j].at
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}

// Scheduler is a single-threaded discrete-event scheduler. Events run in
// non-decreasing time order, and events due at the same time run in the
// order they were scheduled.
type Scheduler struct {
	now   time.Duration
	seq   uint64
	queue eventQueue
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the current simulation time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Schedule runs fn delay after the current simulation time.
// A negative delay is treated as zero.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if delay < 0 {
		delay = 0
	}
	s.seq++
	heap.Push(&s.queue, &event{at: s.now + delay, seq: s.seq, fn: fn})
}

// Pending returns the number of events not run yet.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Run executes the events due strictly before until, then advances the
// clock to until. Events left in the queue stay pending.
func (s *Scheduler) Run(ctx context.Context, until time.Duration) error {
	for len(s.queue) > 0 && s.queue[0].at < until {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := heap.Pop(&s.queue).(*event)
		s.now = ev.at
		ev.fn()
	}
	if until > s.now {
		s.now = until
	}
	return nil
}
