package protocol

import (
	"fmt"

	"github.com/go-gost/blackhole/config"
	xlogger "github.com/go-gost/blackhole/logger"
	mdx "github.com/go-gost/blackhole/metadata"
	"github.com/go-gost/blackhole/registry"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/core/logger"
)

const (
	mdKeyNodes = "nodes"
	mdKeySeed  = "seed"
)

// ParseProtocol builds and initializes the protocol attached to cfg.Node.
//
// The network size and seed are passed down as metadata unless the protocol
// config sets its own.
func ParseProtocol(cfg *config.ProtocolConfig, network *config.NetworkConfig, log logger.Logger) (routing.Protocol, error) {
	if cfg == nil {
		return nil, nil
	}
	if cfg.Handler == "" {
		cfg.Handler = "trust"
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("node-%d", cfg.Node)
	}
	if cfg.Node < 0 {
		return nil, fmt.Errorf("%w: negative node id %d", routing.ErrInvalidConfiguration, cfg.Node)
	}
	if network != nil && network.Nodes > 0 && cfg.Node >= network.Nodes {
		return nil, fmt.Errorf("%w: node %d out of range [0, %d)", routing.ErrInvalidConfiguration, cfg.Node, network.Nodes)
	}

	if log == nil {
		log = xlogger.Nop()
	}
	if cfg.Logger != "" {
		if l := registry.LoggerRegistry().Get(cfg.Logger); l != nil {
			log = l
		}
	}
	protoLogger := log.WithFields(map[string]any{
		"kind":    "protocol",
		"node":    cfg.Name,
		"id":      cfg.Node,
		"handler": cfg.Handler,
	})

	newProtocol := registry.ProtocolRegistry().Get(cfg.Handler)
	if newProtocol == nil {
		return nil, fmt.Errorf("unregistered handler: %s", cfg.Handler)
	}
	p := newProtocol(
		routing.NodeOption(cfg.Name, routing.NodeID(cfg.Node)),
		routing.LoggerOption(protoLogger),
	)

	md := mdx.NewMetadata(cfg.Metadata)
	if network != nil {
		if !md.IsExists(mdKeyNodes) && network.Nodes > 0 {
			md.Set(mdKeyNodes, network.Nodes)
		}
		if !md.IsExists(mdKeySeed) && network.Seed != 0 {
			md.Set(mdKeySeed, int(network.Seed))
		}
	}
	if err := p.Init(md); err != nil {
		protoLogger.Error("init: ", err)
		return nil, err
	}

	return p, nil
}
