package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gost/blackhole/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	Init(Args{
		CfgFile:         `{"network":{"nodes":20}}`,
		Duration:        10 * time.Second,
		Blackholes:      []int{5, 7},
		Handler:         "blackhole",
		DropProbability: 0.9,
		Output:          "out.csv",
		Debug:           true,
		ApiAddr:         ":18080?pathPrefix=/api&accesslog=true",
		MetricsAddr:     ":9000?path=/m",
	})
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Network.Nodes)
	assert.Equal(t, 10*time.Second, cfg.Network.Duration)
	assert.Equal(t, "out.csv", cfg.Telemetry.Output)
	assert.Equal(t, "debug", cfg.Log.Level)

	require.Len(t, cfg.Protocols, 2)
	assert.Equal(t, "blackhole-5", cfg.Protocols[0].Name)
	assert.Equal(t, 7, cfg.Protocols[1].Node)
	assert.Equal(t, 0.9, cfg.Protocols[1].Metadata["dropProbability"])

	assert.Equal(t, ":18080", cfg.API.Addr)
	assert.Equal(t, "/api", cfg.API.PathPrefix)
	assert.True(t, cfg.API.AccessLog)
	assert.Equal(t, ":9000", cfg.Metrics.Addr)
	assert.Equal(t, "/m", cfg.Metrics.Path)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackhole.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network:\n  nodes: 6\nprotocols:\n- name: relay\n  node: 2\n  handler: trust\n"), 0644))

	Init(Args{CfgFile: path, Nodes: 8, DropProbability: -1, Blackholes: []int{3}})
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Network.Nodes)
	require.Len(t, cfg.Protocols, 2)
	assert.Equal(t, "relay", cfg.Protocols[0].Name)
	assert.Equal(t, "trust-3", cfg.Protocols[1].Name)
	assert.Nil(t, cfg.Protocols[1].Metadata)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("BLACKHOLE_LOGGER_LEVEL", "warn")
	t.Setenv("BLACKHOLE_API", ":8080")

	Init(Args{CfgFile: `{}`})
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Nil(t, cfg.Metrics)
}

func TestParseMissingFile(t *testing.T) {
	Init(Args{CfgFile: filepath.Join(t.TempDir(), "missing.yaml")})
	_, err := Parse()
	assert.Error(t, err)
}

func TestParseDropProbabilityOutOfRange(t *testing.T) {
	for _, v := range []float64{1.5, -0.5} {
		Init(Args{CfgFile: `{}`, Blackholes: []int{3}, DropProbability: v})
		cfg, err := Parse()
		assert.ErrorIs(t, err, routing.ErrInvalidConfiguration, "p=%g", v)
		assert.Nil(t, cfg)
	}

	Init(Args{CfgFile: `{}`, Blackholes: []int{3}, DropProbability: NoDropProbability})
	cfg, err := Parse()
	require.NoError(t, err)
	require.Len(t, cfg.Protocols, 1)
	assert.Nil(t, cfg.Protocols[0].Metadata)
}
