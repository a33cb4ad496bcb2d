package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-gost/blackhole/config"
	xmd "github.com/go-gost/blackhole/metadata"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/core/logger"
	mdutil "github.com/go-gost/core/metadata/util"
	"github.com/spf13/viper"
)

// NoDropProbability leaves the handler default in place.
const NoDropProbability = -1

var (
	defaultParser = &parser{}
)

func Init(args Args) {
	defaultParser = &parser{
		args: args,
	}
}

func Parse() (*config.Config, error) {
	return defaultParser.Parse()
}

// Args are the command line settings. They take precedence over the
// config file and the environment.
type Args struct {
	CfgFile  string
	Nodes    int
	Duration time.Duration
	Seed     int64
	Output   string
	// Blackholes are the ids of the nodes running Handler.
	Blackholes []int
	Handler    string
	// DropProbability is passed to every node in Blackholes unless it is
	// NoDropProbability.
	DropProbability float64
	Debug           bool
	Trace           bool
	ApiAddr         string
	MetricsAddr     string
}

type parser struct {
	args Args
}

func (p *parser) Parse() (*config.Config, error) {
	cfg := &config.Config{}

	cfgFile := strings.TrimSpace(p.args.CfgFile)
	switch {
	case strings.HasPrefix(cfgFile, "{") && strings.HasSuffix(cfgFile, "}"):
		if err := json.Unmarshal([]byte(cfgFile), cfg); err != nil {
			return nil, err
		}
	case cfgFile != "":
		if err := cfg.ReadFile(cfgFile); err != nil {
			return nil, err
		}
	default:
		if err := cfg.Load(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	if v := os.Getenv("BLACKHOLE_LOGGER_LEVEL"); v != "" {
		if cfg.Log == nil {
			cfg.Log = &config.LogConfig{}
		}
		cfg.Log.Level = v
	}
	if v := os.Getenv("BLACKHOLE_API"); v != "" {
		cfg.API = parseAPI(v)
	}
	if v := os.Getenv("BLACKHOLE_METRICS"); v != "" {
		cfg.Metrics = parseMetrics(v)
	}

	if v := p.args.DropProbability; len(p.args.Blackholes) > 0 && v != NoDropProbability &&
		(math.IsNaN(v) || v < 0 || v > 1) {
		return nil, fmt.Errorf("%w: drop probability %g not in [0, 1]", routing.ErrInvalidConfiguration, v)
	}

	p.applyNetwork(cfg)

	if p.args.Debug || p.args.Trace {
		if cfg.Log == nil {
			cfg.Log = &config.LogConfig{}
		}

		cfg.Log.Level = string(logger.DebugLevel)
		if p.args.Trace {
			cfg.Log.Level = string(logger.TraceLevel)
		}
	}

	if p.args.ApiAddr != "" {
		cfg.API = parseAPI(p.args.ApiAddr)
	}
	if p.args.MetricsAddr != "" {
		cfg.Metrics = parseMetrics(p.args.MetricsAddr)
	}

	return cfg, nil
}

func (p *parser) applyNetwork(cfg *config.Config) {
	if cfg.Network == nil {
		cfg.Network = &config.NetworkConfig{}
	}
	if p.args.Nodes > 0 {
		cfg.Network.Nodes = p.args.Nodes
	}
	if p.args.Duration > 0 {
		cfg.Network.Duration = p.args.Duration
	}
	if p.args.Seed != 0 {
		cfg.Network.Seed = p.args.Seed
	}
	if p.args.Output != "" {
		if cfg.Telemetry == nil {
			cfg.Telemetry = &config.TelemetryConfig{}
		}
		cfg.Telemetry.Output = p.args.Output
	}

	handler := p.args.Handler
	if handler == "" {
		handler = "trust"
	}
	for _, id := range p.args.Blackholes {
		pc := &config.ProtocolConfig{
			Name:    fmt.Sprintf("%s-%d", handler, id),
			Node:    id,
			Handler: handler,
		}
		if v := p.args.DropProbability; v != NoDropProbability {
			pc.Metadata = map[string]any{"dropProbability": v}
		}
		cfg.Protocols = append(cfg.Protocols, pc)
	}
}

// parseAddr splits "host:port?key=value" into the address and its options.
func parseAddr(s string) (string, map[string]any) {
	m := map[string]any{}
	addr, query, ok := strings.Cut(s, "?")
	if !ok {
		return s, m
	}
	values, _ := url.ParseQuery(query)
	for k, v := range values {
		if len(v) > 0 {
			m[k] = v[0]
		}
	}
	return addr, m
}

func parseAPI(s string) *config.APIConfig {
	addr, m := parseAddr(s)
	md := xmd.NewMetadata(m)
	return &config.APIConfig{
		Addr:       addr,
		PathPrefix: mdutil.GetString(md, "pathPrefix"),
		AccessLog:  mdutil.GetBool(md, "accesslog"),
	}
}

func parseMetrics(s string) *config.MetricsConfig {
	addr, m := parseAddr(s)
	return &config.MetricsConfig{
		Addr: addr,
		Path: mdutil.GetString(xmd.NewMetadata(m), "path"),
	}
}
