package handler

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sync"

	xlogger "github.com/go-gost/blackhole/logger"
	xmetrics "github.com/go-gost/blackhole/metrics"
	"github.com/go-gost/blackhole/observer/stats"
	"github.com/go-gost/blackhole/registry"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/blackhole/trust"
	"github.com/go-gost/core/logger"
	mdata "github.com/go-gost/core/metadata"
	"github.com/go-gost/core/metrics"
)

const (
	// DefaultBlackholeDropProbability is the drop probability of an unmitigated blackhole.
	DefaultBlackholeDropProbability = 1.0
	// DefaultTrustDropProbability is the drop probability applied to blacklisted destinations.
	DefaultTrustDropProbability = 0.05
)

func init() {
	registry.ProtocolRegistry().Register("blackhole", NewBlackholeHandler)
	registry.ProtocolRegistry().Register("trust", NewTrustHandler)
}

// Mode tags the two handler variants.
type Mode int

const (
	// ModeBlackhole treats every destination as suspect and keeps no trust state.
	ModeBlackhole Mode = iota
	// ModeTrust scores destinations and only suspects blacklisted ones.
	ModeTrust
)

func (m Mode) String() string {
	if m == ModeTrust {
		return "trust"
	}
	return "blackhole"
}

// Handler decides for every routed packet whether it is delivered locally,
// forwarded or dropped.
type Handler struct {
	mode     Mode
	ledger   *trust.Ledger
	stats    *stats.Stats
	stack    routing.Stack
	dropProb float64
	rand     func() float64
	md       metadata
	options  routing.Options
	log      logger.Logger
	mu       sync.RWMutex
}

// NewBlackholeHandler creates the unmitigated variant: packets are dropped
// with a static probability regardless of their destination.
func NewBlackholeHandler(opts ...routing.Option) routing.Protocol {
	return newHandler(ModeBlackhole, opts...)
}

// NewTrustHandler creates the mitigated variant backed by a trust ledger.
func NewTrustHandler(opts ...routing.Option) routing.Protocol {
	return newHandler(ModeTrust, opts...)
}

func newHandler(mode Mode, opts ...routing.Option) *Handler {
	var options routing.Options
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = xlogger.Nop()
	}

	h := &Handler{
		mode:    mode,
		stats:   stats.NewStats(),
		rand:    options.Rand,
		options: options,
		log: options.Logger.WithFields(map[string]any{
			"kind":    "handler",
			"handler": mode.String(),
			"node":    options.ID,
		}),
	}
	if h.rand == nil {
		h.rand = rand.New(rand.NewPCG(rand.Uint64(), uint64(options.ID))).Float64
	}

	switch mode {
	case ModeTrust:
		h.dropProb = DefaultTrustDropProbability
		h.ledger = trust.NewLedger(
			trust.LoggerOption(h.log.WithFields(map[string]any{"kind": "trust"})),
			trust.ObserverOption(&ledgerObserver{node: h.Name()}),
		)
	default:
		h.dropProb = DefaultBlackholeDropProbability
	}

	h.log.Debugf("initialized with drop probability %g", h.dropProb)
	return h
}

func (h *Handler) Init(md mdata.Metadata) error {
	return h.parseMetadata(md)
}

func (h *Handler) Mode() Mode {
	return h.mode
}

// SetStack binds the handler to the address and interface context of its node.
func (h *Handler) SetStack(s routing.Stack) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stack = s
	h.log.Debug("stack bound")
}

func (h *Handler) getStack() routing.Stack {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.stack
}

// SetDropProbability changes the drop probability. Values outside [0, 1]
// are rejected and the current value is kept.
func (h *Handler) SetDropProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		err := fmt.Errorf("%w: drop probability %g not in [0, 1]", routing.ErrInvalidConfiguration, p)
		h.log.Warnf("%v, retaining %g", err, h.DropProbability())
		return err
	}

	h.mu.Lock()
	h.dropProb = p
	h.mu.Unlock()

	h.log.Infof("drop probability updated to %g", p)
	return nil
}

func (h *Handler) DropProbability() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.dropProb
}

func (h *Handler) Stats() *stats.Stats {
	return h.stats
}

// Ledger returns the trust ledger, nil for the blackhole variant.
func (h *Handler) Ledger() *trust.Ledger {
	return h.ledger
}

// Snapshot returns the current trust state, empty for the blackhole variant.
func (h *Handler) Snapshot() trust.Snapshot {
	if h.ledger == nil {
		return trust.Snapshot{}
	}
	return h.ledger.Snapshot()
}

func (h *Handler) RouteInput(p *routing.Packet, hdr routing.Header, device string, cb routing.Callbacks) (routing.Outcome, error) {
	dst := hdr.Destination
	log := h.log.WithFields(map[string]any{
		"src": hdr.Source,
		"dst": dst,
	})

	stack := h.getStack()
	if stack == nil {
		return h.fail(log, p, hdr, cb, routing.ErrNotInitialized)
	}

	iface, ok := stack.InterfaceForDevice(device)
	if !ok {
		return h.fail(log, p, hdr, cb, fmt.Errorf("%w: device %q", routing.ErrInterfaceNotFound, device))
	}

	if h.suspect(dst) {
		r, prob := h.rand(), h.DropProbability()
		if r < prob {
			h.stats.Add(stats.KindDropped, 1)
			if h.ledger != nil {
				h.ledger.Update(dst, trust.Dropped)
			}
			log.Debugf("packet dropped (r=%g, p=%g)", r, prob)
			h.decided(routing.OutcomeDrop)
			return routing.OutcomeDrop, nil
		}
		// a suspect destination still gets some of its traffic through.
		log.Debugf("packet let through (r=%g, p=%g)", r, prob)
	}

	if stack.IsDestination(dst, iface.Index) {
		if cb.Deliver == nil {
			return h.fail(log, p, hdr, cb, fmt.Errorf("%w: local deliver", routing.ErrCallbackUnavailable))
		}
		cb.Deliver(p, hdr, iface.Index)
		log.Debugf("packet delivered locally on %s", iface.Name)
		h.decided(routing.OutcomeDeliver)
		return routing.OutcomeDeliver, nil
	}

	h.stats.Add(stats.KindForwarded, 1)
	if h.ledger != nil {
		h.ledger.Update(dst, trust.Forwarded)
	}

	if cb.Forward == nil {
		return h.fail(log, p, hdr, cb, fmt.Errorf("%w: unicast forward", routing.ErrCallbackUnavailable))
	}
	route := &routing.Route{
		Source:      iface.Addr,
		Interface:   iface,
		Destination: dst,
	}
	cb.Forward(route, p, hdr)
	log.Debugf("packet forwarded via %s", iface.Name)
	h.decided(routing.OutcomeForward)
	return routing.OutcomeForward, nil
}

// RouteOutput always fails: the handler never originates routes.
func (h *Handler) RouteOutput(p *routing.Packet, hdr routing.Header, device string) (*routing.Route, error) {
	h.log.Debugf("route output to %d not supported", hdr.Destination)
	return nil, routing.ErrNoRouteToHost
}

func (h *Handler) Notify(ev routing.Event) {
	log := h.log.WithFields(map[string]any{
		"event":     ev.Type.String(),
		"interface": ev.Interface,
	})
	switch ev.Type {
	case routing.EventAddressAdded, routing.EventAddressRemoved:
		log.Infof("interface %d address %s", ev.Interface, ev.Addr)
	default:
		log.Infof("interface %d %s", ev.Interface, ev.Type)
	}
}

func (h *Handler) WriteRoutingTable(w io.Writer) error {
	_, err := fmt.Fprintf(w, "node %d (%s): routing table not maintained\n", h.options.ID, h.mode)
	return err
}

func (h *Handler) suspect(dst routing.NodeID) bool {
	if h.ledger == nil {
		return true
	}
	return h.ledger.IsBlacklisted(dst)
}

func (h *Handler) fail(log logger.Logger, p *routing.Packet, hdr routing.Header, cb routing.Callbacks, err error) (routing.Outcome, error) {
	log.Error(err)
	xmetrics.GetCounter(xmetrics.MetricErrorsCounter, metrics.Labels{
		"node":   h.Name(),
		"reason": routing.Reason(err),
	}).Inc()
	if cb.Error != nil {
		cb.Error(p, hdr, err)
	}
	return routing.OutcomeDrop, err
}

func (h *Handler) decided(outcome routing.Outcome) {
	xmetrics.GetCounter(xmetrics.MetricDecisionsCounter, metrics.Labels{
		"node":    h.Name(),
		"outcome": outcome.String(),
	}).Inc()
}

// Name is the registered protocol name, or the node id when unnamed.
func (h *Handler) Name() string {
	if h.options.Node != "" {
		return h.options.Node
	}
	return h.options.ID.String()
}
