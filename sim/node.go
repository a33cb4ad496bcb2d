package sim

import (
	"encoding/binary"
	"net/netip"

	"github.com/go-gost/blackhole/observer/stats"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/blackhole/trust"
)

// DefaultDevice is the single wireless device every node carries.
const DefaultDevice = "wlan0"

var baseAddr = netip.MustParseAddr("10.1.1.0")

// Node is a simulated host. It binds its protocol to its own interface and
// address; a node without a protocol is an honest relay.
type Node struct {
	id       routing.NodeID
	iface    routing.Interface
	protocol routing.Protocol
}

func NewNode(id routing.NodeID) *Node {
	return &Node{
		id: id,
		iface: routing.Interface{
			Index: 1,
			Name:  DefaultDevice,
			Addr:  nodeAddr(id),
		},
	}
}

// nodeAddr assigns addresses sequentially from 10.1.1.1.
func nodeAddr(id routing.NodeID) netip.Addr {
	b := baseAddr.As4()
	v := binary.BigEndian.Uint32(b[:]) + uint32(id) + 1
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}

func (n *Node) ID() routing.NodeID {
	return n.id
}

func (n *Node) Addr() netip.Addr {
	return n.iface.Addr
}

func (n *Node) Interface() routing.Interface {
	return n.iface
}

func (n *Node) Protocol() routing.Protocol {
	return n.protocol
}

// Attach installs p as the node's routing protocol and binds it to the node.
func (n *Node) Attach(p routing.Protocol) {
	n.protocol = p
	if p == nil {
		return
	}
	p.SetStack(n)
	p.Notify(routing.Event{Type: routing.EventInterfaceUp, Interface: n.iface.Index})
	p.Notify(routing.Event{
		Type:      routing.EventAddressAdded,
		Interface: n.iface.Index,
		Addr:      netip.PrefixFrom(n.iface.Addr, 24),
	})
}

func (n *Node) InterfaceForDevice(device string) (routing.Interface, bool) {
	if device != n.iface.Name {
		return routing.Interface{}, false
	}
	return n.iface, true
}

func (n *Node) IsDestination(id routing.NodeID, iface int) bool {
	return id == n.id && iface == n.iface.Index
}

type snapshotter interface {
	Snapshot() trust.Snapshot
}

type statser interface {
	Stats() *stats.Stats
}

// Snapshot returns the trust view of the node's protocol, if it keeps one.
func (n *Node) Snapshot() (trust.Snapshot, bool) {
	if s, ok := n.protocol.(snapshotter); ok {
		return s.Snapshot(), true
	}
	return trust.Snapshot{}, false
}

// Stats returns the forwarding counters of the node's protocol, if any.
func (n *Node) Stats() *stats.Stats {
	if s, ok := n.protocol.(statser); ok {
		return s.Stats()
	}
	return nil
}

type namer interface {
	Name() string
}

// Name is the registered name of the node's protocol, falling back to the
// node id.
func (n *Node) Name() string {
	if s, ok := n.protocol.(namer); ok {
		if name := s.Name(); name != "" {
			return name
		}
	}
	return n.id.String()
}
