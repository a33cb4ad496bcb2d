package handler

import (
	"bytes"
	"math"
	"net/netip"
	"testing"

	mdx "github.com/go-gost/blackhole/metadata"
	"github.com/go-gost/blackhole/observer/stats"
	"github.com/go-gost/blackhole/registry"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/blackhole/trust"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	localID routing.NodeID = 4
	sinkID  routing.NodeID = 9
)

var wlan0 = routing.Interface{
	Index: 1,
	Name:  "wlan0",
	Addr:  netip.MustParseAddr("10.1.1.5"),
}

type fakeStack struct{}

func (fakeStack) InterfaceForDevice(device string) (routing.Interface, bool) {
	if device == wlan0.Name {
		return wlan0, true
	}
	return routing.Interface{}, false
}

func (fakeStack) IsDestination(id routing.NodeID, iface int) bool {
	return id == localID && iface == wlan0.Index
}

// fixedRand returns the same value on every draw.
func fixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

type calls struct {
	forwarded []*routing.Route
	delivered []int
	errs      []error
}

func (c *calls) callbacks() routing.Callbacks {
	return routing.Callbacks{
		Forward: func(r *routing.Route, p *routing.Packet, h routing.Header) {
			c.forwarded = append(c.forwarded, r)
		},
		Deliver: func(p *routing.Packet, h routing.Header, iface int) {
			c.delivered = append(c.delivered, iface)
		},
		Error: func(p *routing.Packet, h routing.Header, err error) {
			c.errs = append(c.errs, err)
		},
	}
}

func newTestHandler(t *testing.T, mode Mode, r func() float64) *Handler {
	t.Helper()
	h := newHandler(mode, routing.NodeOption("relay", localID), routing.RandOption(r))
	h.SetStack(fakeStack{})
	return h
}

func header(dst routing.NodeID) routing.Header {
	return routing.Header{Source: 1, Destination: dst, Size: 1024}
}

func blacklist(l *trust.Ledger, id routing.NodeID) {
	for !l.IsBlacklisted(id) {
		l.Update(id, trust.Dropped)
	}
}

func TestRouteInputNotInitialized(t *testing.T) {
	h := newHandler(ModeTrust, routing.RandOption(fixedRand(0)))
	c := &calls{}

	outcome, err := h.RouteInput(&routing.Packet{}, header(sinkID), "wlan0", c.callbacks())

	assert.Equal(t, routing.OutcomeDrop, outcome)
	assert.ErrorIs(t, err, routing.ErrNotInitialized)
	require.Len(t, c.errs, 1)
	assert.ErrorIs(t, c.errs[0], routing.ErrNotInitialized)
	assert.Empty(t, c.forwarded)
	assert.Zero(t, h.Stats().Get(stats.KindDropped))
	assert.Zero(t, h.Stats().Get(stats.KindForwarded))
	assert.Zero(t, h.Ledger().Len())
}

func TestRouteInputInterfaceNotFound(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0))
	c := &calls{}

	outcome, err := h.RouteInput(&routing.Packet{}, header(sinkID), "eth7", c.callbacks())

	assert.Equal(t, routing.OutcomeDrop, outcome)
	assert.ErrorIs(t, err, routing.ErrInterfaceNotFound)
	assert.Len(t, c.errs, 1)
	assert.Empty(t, c.forwarded)
	assert.Zero(t, h.Ledger().Len())
}

func TestRouteInputForward(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0))
	h.Ledger().Update(sinkID, trust.Dropped)
	c := &calls{}

	outcome, err := h.RouteInput(&routing.Packet{}, header(sinkID), "wlan0", c.callbacks())

	require.NoError(t, err)
	assert.Equal(t, routing.OutcomeForward, outcome)
	require.Len(t, c.forwarded, 1)
	assert.Equal(t, &routing.Route{
		Source:      wlan0.Addr,
		Interface:   wlan0,
		Destination: sinkID,
	}, c.forwarded[0])
	assert.Equal(t, uint64(1), h.Stats().Get(stats.KindForwarded))
	assert.Equal(t, 0.9, h.Ledger().Score(sinkID))
}

func TestRouteInputDeliverLocally(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0))
	c := &calls{}

	outcome, err := h.RouteInput(&routing.Packet{}, header(localID), "wlan0", c.callbacks())

	require.NoError(t, err)
	assert.Equal(t, routing.OutcomeDeliver, outcome)
	assert.Equal(t, []int{wlan0.Index}, c.delivered)
	assert.Empty(t, c.forwarded)
	assert.Zero(t, h.Ledger().Len(), "local delivery is not a trust event")
	assert.Zero(t, h.Stats().Get(stats.KindForwarded))
}

func TestRouteInputDeliverCallbackUnavailable(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0))
	c := &calls{}
	cb := c.callbacks()
	cb.Deliver = nil

	outcome, err := h.RouteInput(&routing.Packet{}, header(localID), "wlan0", cb)

	assert.Equal(t, routing.OutcomeDrop, outcome)
	assert.ErrorIs(t, err, routing.ErrCallbackUnavailable)
	assert.Len(t, c.errs, 1)
	assert.Zero(t, h.Ledger().Len())
}

func TestRouteInputForwardCallbackUnavailable(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0))
	h.Ledger().Update(sinkID, trust.Dropped)

	outcome, err := h.RouteInput(&routing.Packet{}, header(sinkID), "wlan0", routing.Callbacks{})

	assert.Equal(t, routing.OutcomeDrop, outcome)
	assert.ErrorIs(t, err, routing.ErrCallbackUnavailable)
	// the forward bookkeeping happens before the callback is looked at
	assert.Equal(t, uint64(1), h.Stats().Get(stats.KindForwarded))
	assert.Equal(t, 0.9, h.Ledger().Score(sinkID))
}

func TestRouteInputBlacklistedAlwaysDropped(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0.999))
	require.NoError(t, h.SetDropProbability(1))
	blacklist(h.Ledger(), sinkID)
	c := &calls{}

	for i := 0; i < 20; i++ {
		outcome, err := h.RouteInput(&routing.Packet{}, header(sinkID), "wlan0", c.callbacks())
		require.NoError(t, err)
		require.Equal(t, routing.OutcomeDrop, outcome)
	}

	assert.Empty(t, c.forwarded)
	assert.Empty(t, c.errs)
	assert.Equal(t, uint64(20), h.Stats().Get(stats.KindDropped))
	assert.Equal(t, 0.0, h.Ledger().Score(sinkID))
	assert.True(t, h.Ledger().IsBlacklisted(sinkID))
}

func TestRouteInputBlacklistedNeverDroppedWithZeroProbability(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0))
	require.NoError(t, h.SetDropProbability(0))
	blacklist(h.Ledger(), sinkID)
	c := &calls{}

	outcome, err := h.RouteInput(&routing.Packet{}, header(sinkID), "wlan0", c.callbacks())

	require.NoError(t, err)
	assert.Equal(t, routing.OutcomeForward, outcome)
	assert.Zero(t, h.Stats().Get(stats.KindDropped))
	assert.Len(t, c.forwarded, 1)
}

// A blacklisted destination that escapes the probabilistic drop is rewarded
// like any forwarded destination.
func TestRouteInputBlacklistedFallThroughIsRewarded(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0.5))
	require.NoError(t, h.SetDropProbability(0.3))
	blacklist(h.Ledger(), sinkID)
	require.Equal(t, 0.2, h.Ledger().Score(sinkID))
	c := &calls{}

	outcome, err := h.RouteInput(&routing.Packet{}, header(sinkID), "wlan0", c.callbacks())

	require.NoError(t, err)
	assert.Equal(t, routing.OutcomeForward, outcome)
	assert.Equal(t, 0.3, h.Ledger().Score(sinkID))
	assert.True(t, h.Ledger().IsBlacklisted(sinkID))

	// three more escapes lift it out of the blacklist
	for i := 0; i < 3; i++ {
		h.RouteInput(&routing.Packet{}, header(sinkID), "wlan0", c.callbacks())
	}
	assert.Equal(t, 0.6, h.Ledger().Score(sinkID))
	assert.False(t, h.Ledger().IsBlacklisted(sinkID))
	assert.Equal(t, uint64(4), h.Stats().Get(stats.KindForwarded))
}

func TestRouteInputBlacklistedLocalDestination(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0.5))
	require.NoError(t, h.SetDropProbability(0.3))
	blacklist(h.Ledger(), localID)
	before := h.Ledger().Score(localID)
	c := &calls{}

	outcome, err := h.RouteInput(&routing.Packet{}, header(localID), "wlan0", c.callbacks())

	require.NoError(t, err)
	assert.Equal(t, routing.OutcomeDeliver, outcome)
	assert.Equal(t, before, h.Ledger().Score(localID))
}

func TestBlackholeDropsEverything(t *testing.T) {
	h := newTestHandler(t, ModeBlackhole, fixedRand(0.999999))
	assert.Nil(t, h.Ledger())
	assert.Equal(t, DefaultBlackholeDropProbability, h.DropProbability())
	c := &calls{}

	for _, dst := range []routing.NodeID{sinkID, localID, 1} {
		outcome, err := h.RouteInput(&routing.Packet{}, header(dst), "wlan0", c.callbacks())
		require.NoError(t, err)
		assert.Equal(t, routing.OutcomeDrop, outcome)
	}
	assert.Empty(t, c.forwarded)
	assert.Empty(t, c.delivered)
	assert.Equal(t, uint64(3), h.Stats().Get(stats.KindDropped))
	assert.Empty(t, h.Snapshot().Scores)
}

func TestBlackholePartialDrop(t *testing.T) {
	draws := []float64{0.1, 0.95, 0.89, 0.9}
	i := 0
	h := newTestHandler(t, ModeBlackhole, func() float64 {
		v := draws[i]
		i++
		return v
	})
	require.NoError(t, h.SetDropProbability(0.9))
	c := &calls{}

	var outcomes []routing.Outcome
	for range draws {
		outcome, _ := h.RouteInput(&routing.Packet{}, header(sinkID), "wlan0", c.callbacks())
		outcomes = append(outcomes, outcome)
	}

	assert.Equal(t, []routing.Outcome{
		routing.OutcomeDrop,
		routing.OutcomeForward,
		routing.OutcomeDrop,
		routing.OutcomeForward,
	}, outcomes)
	assert.Equal(t, uint64(2), h.Stats().Get(stats.KindDropped))
	assert.Equal(t, uint64(2), h.Stats().Get(stats.KindForwarded))
}

func TestSetDropProbability(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0))
	assert.Equal(t, DefaultTrustDropProbability, h.DropProbability())

	require.NoError(t, h.SetDropProbability(0.9))
	for _, p := range []float64{-0.1, 1.0001, math.NaN(), math.Inf(1)} {
		err := h.SetDropProbability(p)
		assert.ErrorIs(t, err, routing.ErrInvalidConfiguration, "p=%g", p)
		assert.Equal(t, 0.9, h.DropProbability())
	}
	require.NoError(t, h.SetDropProbability(0))
	require.NoError(t, h.SetDropProbability(1))
	assert.Equal(t, 1.0, h.DropProbability())
}

func TestRouteOutput(t *testing.T) {
	for _, mode := range []Mode{ModeBlackhole, ModeTrust} {
		h := newTestHandler(t, mode, fixedRand(0))

		route, err := h.RouteOutput(&routing.Packet{}, header(sinkID), "wlan0")

		assert.Nil(t, route)
		assert.ErrorIs(t, err, routing.ErrNoRouteToHost)
		assert.Zero(t, h.Stats().Get(stats.KindForwarded))
		assert.Zero(t, h.Stats().Get(stats.KindDropped))
		assert.Empty(t, h.Snapshot().Scores)
	}
}

func TestInitMetadata(t *testing.T) {
	h := newTestHandler(t, ModeTrust, fixedRand(0))

	err := h.Init(mdx.NewMetadata(map[string]any{
		"dropProbability": 0.9,
		"nodes":           10,
	}))

	require.NoError(t, err)
	assert.Equal(t, 0.9, h.DropProbability())
	assert.Equal(t, 10, h.Ledger().Len())
	assert.Empty(t, h.Snapshot().Blacklist)
}

func TestInitMetadataInvalidProbability(t *testing.T) {
	h := newTestHandler(t, ModeBlackhole, fixedRand(0))

	err := h.Init(mdx.NewMetadata(map[string]any{"dropProbability": 2.5}))
	assert.ErrorIs(t, err, routing.ErrInvalidConfiguration)
	assert.Equal(t, DefaultBlackholeDropProbability, h.DropProbability())

	require.NoError(t, h.Init(nil))
}

func TestSeededHandlersAgree(t *testing.T) {
	decide := func() []routing.Outcome {
		h := newHandler(ModeBlackhole, routing.NodeOption("relay", localID))
		h.SetStack(fakeStack{})
		require.NoError(t, h.Init(mdx.NewMetadata(map[string]any{
			"dropProbability": 0.5,
			"seed":            42,
		})))
		var out []routing.Outcome
		for i := 0; i < 50; i++ {
			o, _ := h.RouteInput(&routing.Packet{}, header(sinkID), "wlan0", (&calls{}).callbacks())
			out = append(out, o)
		}
		return out
	}

	assert.Equal(t, decide(), decide())
}

func TestRegistered(t *testing.T) {
	for name, mode := range map[string]Mode{"blackhole": ModeBlackhole, "trust": ModeTrust} {
		newProtocol := registry.ProtocolRegistry().Get(name)
		require.NotNil(t, newProtocol, name)
		h, ok := newProtocol().(*Handler)
		require.True(t, ok)
		assert.Equal(t, mode, h.Mode())
	}
}

func TestWriteRoutingTable(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHandler(t, ModeTrust, fixedRand(0))

	require.NoError(t, h.WriteRoutingTable(&buf))
	assert.Equal(t, "node 4 (trust): routing table not maintained\n", buf.String())

	h.Notify(routing.Event{Type: routing.EventInterfaceUp, Interface: 1})
}

func TestName(t *testing.T) {
	assert.Equal(t, "relay", newTestHandler(t, ModeTrust, fixedRand(0)).Name())
	assert.Equal(t, "4", newHandler(ModeTrust, routing.NodeOption("", localID)).Name())
}
