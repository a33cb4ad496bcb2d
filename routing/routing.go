package routing

import (
	"io"
	"net/netip"
	"strconv"
	"time"

	"github.com/go-gost/core/logger"
	"github.com/go-gost/core/metadata"
)

// NodeID identifies a participant of the network. IDs are assigned by the
// host topology and never recycled during a run.
type NodeID uint32

func (id NodeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

type Header struct {
	Source      NodeID
	Destination NodeID
	Size        int
}

type Packet struct {
	ID      string
	Size    int
	Payload []byte
	// SentAt is the simulation time the packet was originated at.
	SentAt time.Duration
}

// Interface is a network interface of the local node as seen by the host stack.
type Interface struct {
	Index int
	Name  string
	Addr  netip.Addr
}

// Route is the descriptor handed to the forward callback.
type Route struct {
	Source      netip.Addr
	Interface   Interface
	Destination NodeID
}

type Outcome int

const (
	OutcomeDrop Outcome = iota
	OutcomeDeliver
	OutcomeForward
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeliver:
		return "deliver"
	case OutcomeForward:
		return "forward"
	default:
		return "drop"
	}
}

// Stack is the address and interface context of the node a protocol is attached to.
type Stack interface {
	// InterfaceForDevice resolves the interface a packet arrived on.
	InterfaceForDevice(device string) (Interface, bool)
	// IsDestination reports whether id is the local node on the given interface.
	IsDestination(id NodeID, iface int) bool
}

type (
	UnicastForwardFunc func(r *Route, p *Packet, h Header)
	LocalDeliverFunc   func(p *Packet, h Header, iface int)
	ErrorFunc          func(p *Packet, h Header, err error)
)

// Callbacks are supplied by the host on every call. Any of them may be nil.
type Callbacks struct {
	Forward UnicastForwardFunc
	Deliver LocalDeliverFunc
	Error   ErrorFunc
}

type EventType int

const (
	EventInterfaceUp EventType = iota + 1
	EventInterfaceDown
	EventAddressAdded
	EventAddressRemoved
)

func (t EventType) String() string {
	switch t {
	case EventInterfaceUp:
		return "interface-up"
	case EventInterfaceDown:
		return "interface-down"
	case EventAddressAdded:
		return "address-added"
	case EventAddressRemoved:
		return "address-removed"
	default:
		return "unknown"
	}
}

type Event struct {
	Type      EventType
	Interface int
	Addr      netip.Prefix
}

type Options struct {
	// Node is the name the protocol is registered under.
	Node string
	// ID is the identity of the node the protocol is attached to.
	ID     NodeID
	Logger logger.Logger
	// Rand is the per-node uniform generator over [0, 1).
	Rand func() float64
}

type Option func(opts *Options)

func NodeOption(node string, id NodeID) Option {
	return func(opts *Options) {
		opts.Node = node
		opts.ID = id
	}
}

func LoggerOption(logger logger.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func RandOption(rand func() float64) Option {
	return func(opts *Options) {
		opts.Rand = rand
	}
}

// Protocol decides what happens to the packets a node is asked to route.
type Protocol interface {
	Init(md metadata.Metadata) error
	// RouteInput handles a packet arriving on device. An error always comes with OutcomeDrop.
	RouteInput(p *Packet, h Header, device string, cb Callbacks) (Outcome, error)
	// RouteOutput handles a packet originated by the local node.
	RouteOutput(p *Packet, h Header, device string) (*Route, error)
	SetStack(s Stack)
	Notify(ev Event)
	WriteRoutingTable(w io.Writer) error
}
