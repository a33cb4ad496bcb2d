package sim

import (
	"time"

	"github.com/go-gost/blackhole/routing"
	"github.com/rs/xid"
)

const (
	DefaultRate       = 128
	DefaultPacketSize = 1024
)

// Traffic is a constant bit rate flow from Source to Sink.
type Traffic struct {
	Source     routing.NodeID
	Sink       routing.NodeID
	Rate       int
	PacketSize int
	Duration   time.Duration
}

// Count returns the number of packets the flow emits over its duration.
func (t *Traffic) Count() int {
	return int(float64(t.rate()) * t.Duration.Seconds())
}

func (t *Traffic) rate() int {
	if t.Rate <= 0 {
		return DefaultRate
	}
	return t.Rate
}

// Start schedules every packet of the flow on sched, one each 1/Rate
// seconds starting at the current time.
func (t *Traffic) Start(sched *Scheduler, network *Network) {
	size := t.PacketSize
	if size <= 0 {
		size = DefaultPacketSize
	}
	interval := time.Second / time.Duration(t.rate())

	h := routing.Header{
		Source:      t.Source,
		Destination: t.Sink,
		Size:        size,
	}
	for i := 0; i < t.Count(); i++ {
		sched.Schedule(time.Duration(i)*interval, func() {
			p := &routing.Packet{
				ID:   xid.New().String(),
				Size: size,
			}
			network.Send(p, h)
		})
	}
}
