package protocol

import (
	"testing"

	"github.com/go-gost/blackhole/config"
	"github.com/go-gost/blackhole/handler"
	xlogger "github.com/go-gost/blackhole/logger"
	"github.com/go-gost/blackhole/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProtocolTrust(t *testing.T) {
	p, err := ParseProtocol(&config.ProtocolConfig{
		Node:     3,
		Handler:  "trust",
		Metadata: map[string]any{"dropprobability": 0.25},
	}, &config.NetworkConfig{Nodes: 6, Seed: 11}, xlogger.Nop())
	require.NoError(t, err)

	h, ok := p.(*handler.Handler)
	require.True(t, ok)
	assert.Equal(t, handler.ModeTrust, h.Mode())
	assert.Equal(t, 0.25, h.DropProbability())
	// the ledger was sized from the network
	assert.Equal(t, 6, h.Ledger().Len())
}

func TestParseProtocolDefaults(t *testing.T) {
	cfg := &config.ProtocolConfig{Node: 2}
	p, err := ParseProtocol(cfg, nil, xlogger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "node-2", cfg.Name)
	assert.Equal(t, "trust", cfg.Handler)
	assert.Equal(t, handler.DefaultTrustDropProbability, p.(*handler.Handler).DropProbability())
}

func TestParseProtocolBlackhole(t *testing.T) {
	p, err := ParseProtocol(&config.ProtocolConfig{Node: 1, Handler: "blackhole"}, nil, xlogger.Nop())
	require.NoError(t, err)
	assert.Equal(t, handler.ModeBlackhole, p.(*handler.Handler).Mode())
	assert.Equal(t, handler.DefaultBlackholeDropProbability, p.(*handler.Handler).DropProbability())
}

func TestParseProtocolErrors(t *testing.T) {
	_, err := ParseProtocol(&config.ProtocolConfig{Node: 1, Handler: "aodv"}, nil, xlogger.Nop())
	assert.Error(t, err)

	_, err = ParseProtocol(&config.ProtocolConfig{Node: 8}, &config.NetworkConfig{Nodes: 4}, xlogger.Nop())
	assert.ErrorIs(t, err, routing.ErrInvalidConfiguration)

	_, err = ParseProtocol(&config.ProtocolConfig{Node: -1}, nil, xlogger.Nop())
	assert.ErrorIs(t, err, routing.ErrInvalidConfiguration)

	p, err := ParseProtocol(nil, nil, xlogger.Nop())
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestParseProtocolInvalidProbability(t *testing.T) {
	_, err := ParseProtocol(&config.ProtocolConfig{
		Node:     2,
		Handler:  "blackhole",
		Metadata: map[string]any{"dropProbability": 1.5},
	}, &config.NetworkConfig{Nodes: 4}, xlogger.Nop())
	assert.ErrorIs(t, err, routing.ErrInvalidConfiguration)
}
