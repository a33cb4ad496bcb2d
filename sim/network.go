package sim

import (
	"fmt"
	"time"

	xlogger "github.com/go-gost/blackhole/logger"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/core/logger"
)

const DefaultHopLatency = time.Millisecond

type networkOptions struct {
	hopLatency time.Duration
	logger     logger.Logger
}

type NetworkOption func(opts *networkOptions)

func HopLatencyNetworkOption(d time.Duration) NetworkOption {
	return func(opts *networkOptions) {
		opts.hopLatency = d
	}
}

func LoggerNetworkOption(logger logger.Logger) NetworkOption {
	return func(opts *networkOptions) {
		opts.logger = logger
	}
}

// Totals are the end-to-end packet counters of a network.
type Totals struct {
	Sent     uint64
	Received uint64
	// Delay is the summed end-to-end delay of the received packets.
	Delay time.Duration
}

// Network is a linear relay chain: node i only reaches nodes i-1 and i+1,
// so a packet from src to dst crosses every node in between.
type Network struct {
	nodes   []*Node
	sched   *Scheduler
	totals  Totals
	options networkOptions
}

func NewNetwork(sched *Scheduler, size int, opts ...NetworkOption) *Network {
	var options networkOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.hopLatency <= 0 {
		options.hopLatency = DefaultHopLatency
	}
	if options.logger == nil {
		options.logger = xlogger.Nop()
	}

	nodes := make([]*Node, size)
	for i := range nodes {
		nodes[i] = NewNode(routing.NodeID(i))
	}

	return &Network{
		nodes:   nodes,
		sched:   sched,
		options: options,
	}
}

func (n *Network) Size() int {
	return len(n.nodes)
}

func (n *Network) Nodes() []*Node {
	return n.nodes
}

func (n *Network) Node(id routing.NodeID) *Node {
	if int(id) >= len(n.nodes) {
		return nil
	}
	return n.nodes[id]
}

// Attach installs p on node id.
func (n *Network) Attach(id routing.NodeID, p routing.Protocol) error {
	node := n.Node(id)
	if node == nil {
		return fmt.Errorf("%w: node %d out of range [0, %d)", routing.ErrInvalidConfiguration, id, len(n.nodes))
	}
	node.Attach(p)
	return nil
}

func (n *Network) Totals() Totals {
	return n.totals
}

// Send originates p at h.Source. The source hands the packet to its
// neighbour toward h.Destination without consulting its own protocol.
func (n *Network) Send(p *routing.Packet, h routing.Header) error {
	if n.Node(h.Source) == nil || n.Node(h.Destination) == nil {
		return fmt.Errorf("%w: %d -> %d", routing.ErrNoRouteToHost, h.Source, h.Destination)
	}

	p.SentAt = n.sched.Now()
	n.totals.Sent++

	if h.Source == h.Destination {
		n.deliver(p)
		return nil
	}
	n.transmit(n.next(h.Source, h.Destination), p, h)
	return nil
}

func (n *Network) next(cur, dst routing.NodeID) routing.NodeID {
	if dst > cur {
		return cur + 1
	}
	return cur - 1
}

func (n *Network) transmit(to routing.NodeID, p *routing.Packet, h routing.Header) {
	n.sched.Schedule(n.options.hopLatency, func() {
		n.receive(n.nodes[to], p, h)
	})
}

func (n *Network) receive(node *Node, p *routing.Packet, h routing.Header) {
	if node.protocol == nil {
		if node.IsDestination(h.Destination, node.iface.Index) {
			n.deliver(p)
		} else {
			n.transmit(n.next(node.id, h.Destination), p, h)
		}
		return
	}

	cb := routing.Callbacks{
		Forward: func(r *routing.Route, p *routing.Packet, h routing.Header) {
			n.transmit(n.next(node.id, r.Destination), p, h)
		},
		Deliver: func(p *routing.Packet, h routing.Header, iface int) {
			n.deliver(p)
		},
		Error: func(p *routing.Packet, h routing.Header, err error) {
			n.options.logger.Warnf("node %d: packet %s: %v", node.id, p.ID, err)
		},
	}
	outcome, _ := node.protocol.RouteInput(p, h, DefaultDevice, cb)
	if outcome == routing.OutcomeDrop {
		n.options.logger.Tracef("node %d: dropped packet %s for %d", node.id, p.ID, h.Destination)
	}
}

func (n *Network) deliver(p *routing.Packet) {
	n.totals.Received++
	n.totals.Delay += n.sched.Now() - p.SentAt
}
