package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gost/blackhole/config"
	xlogger "github.com/go-gost/blackhole/logger"
	observer_plugin "github.com/go-gost/blackhole/observer/plugin"
	"github.com/go-gost/blackhole/recorder"
	"github.com/go-gost/blackhole/registry"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/core/logger"
	"github.com/go-gost/core/observer"
)

const (
	DefaultNodes    = 10
	DefaultDuration = 50 * time.Second
)

// Simulation wires a network, its traffic flow and the periodic trust export
// from a config whose protocols were already loaded into the node registry.
type Simulation struct {
	sched      *Scheduler
	network    *Network
	traffic    *Traffic
	exporter   *Exporter
	aggregator *Aggregator
	log        logger.Logger
}

func New(cfg *config.Config, log logger.Logger) (*Simulation, error) {
	if log == nil {
		log = xlogger.Nop()
	}
	ncfg := networkConfig(cfg.Network)
	if ncfg.Nodes < 2 {
		return nil, fmt.Errorf("%w: at least 2 nodes required, got %d", routing.ErrInvalidConfiguration, ncfg.Nodes)
	}
	src, sink := *ncfg.Source, *ncfg.Sink
	if src < 0 || src >= ncfg.Nodes || sink < 0 || sink >= ncfg.Nodes {
		return nil, fmt.Errorf("%w: flow %d -> %d outside [0, %d)", routing.ErrInvalidConfiguration, src, sink, ncfg.Nodes)
	}

	sched := NewScheduler()
	network := NewNetwork(sched, ncfg.Nodes,
		HopLatencyNetworkOption(ncfg.HopLatency),
		LoggerNetworkOption(log.WithFields(map[string]any{"kind": "network"})),
	)
	for _, pc := range cfg.Protocols {
		if pc == nil {
			continue
		}
		p := registry.NodeRegistry().Get(pc.Name)
		if p == nil {
			return nil, fmt.Errorf("protocol %s is not loaded", pc.Name)
		}
		if err := network.Attach(routing.NodeID(pc.Node), p); err != nil {
			return nil, err
		}
	}

	tcfg := cfg.Telemetry
	if tcfg == nil {
		tcfg = &config.TelemetryConfig{}
	}
	aggregator := NewAggregator(log.WithFields(map[string]any{"kind": "aggregator"}))
	exporterLogger := log.WithFields(map[string]any{"kind": "exporter"})

	var obs observer.Observer
	if oc := tcfg.Observer; oc != nil && oc.Addr != "" {
		obs = observer_plugin.NewHTTPPlugin(oc.Name, oc.Addr,
			observer_plugin.TimeoutOption(oc.Timeout),
			observer_plugin.LoggerOption(exporterLogger),
		)
	}

	return &Simulation{
		sched:   sched,
		network: network,
		traffic: &Traffic{
			Source:     routing.NodeID(src),
			Sink:       routing.NodeID(sink),
			Rate:       ncfg.Rate,
			PacketSize: ncfg.PacketSize,
			Duration:   ncfg.Duration,
		},
		exporter: &Exporter{
			Recorder: recorder.NewTrustRecorder(tcfg.Output,
				recorder.RecorderTrustRecorderOption("telemetry"),
				recorder.LoggerTrustRecorderOption(exporterLogger),
			),
			Aggregator: aggregator,
			Observer:   obs,
			Interval:   tcfg.Interval,
			Logger:     exporterLogger,
		},
		aggregator: aggregator,
		log:        log,
	}, nil
}

// networkConfig fills the unset fields of cfg with the defaults.
func networkConfig(cfg *config.NetworkConfig) config.NetworkConfig {
	var c config.NetworkConfig
	if cfg != nil {
		c = *cfg
	}
	if c.Nodes == 0 {
		c.Nodes = DefaultNodes
	}
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	if c.Rate <= 0 {
		c.Rate = DefaultRate
	}
	if c.PacketSize <= 0 {
		c.PacketSize = DefaultPacketSize
	}
	if c.HopLatency <= 0 {
		c.HopLatency = DefaultHopLatency
	}
	if c.Source == nil {
		src := 1
		c.Source = &src
	}
	if c.Sink == nil {
		sink := c.Nodes - 1
		c.Sink = &sink
	}
	return c
}

func (s *Simulation) Network() *Network {
	return s.network
}

func (s *Simulation) Aggregator() *Aggregator {
	return s.aggregator
}

// Run drives the simulation to its configured duration, or until ctx is
// canceled, and reports the results collected so far.
func (s *Simulation) Run(ctx context.Context) (*Summary, error) {
	s.log.Infof("simulating %d nodes for %s, flow %d -> %d at %d pkt/s",
		s.network.Size(), s.traffic.Duration, s.traffic.Source, s.traffic.Sink, s.traffic.rate())

	s.traffic.Start(s.sched, s.network)
	s.exporter.Start(ctx, s.sched, s.network)

	err := s.sched.Run(ctx, s.traffic.Duration)
	s.aggregator.Merge(s.network.Nodes())

	s.log.Infof("simulation finished at %s after %d export rounds", s.sched.Now(), s.exporter.Rounds())
	return NewSummary(s.network, s.traffic.Duration, s.traffic.PacketSize, s.aggregator), err
}
