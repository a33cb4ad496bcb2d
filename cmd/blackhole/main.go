package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	api_service "github.com/go-gost/blackhole/api/service"
	"github.com/go-gost/blackhole/config"
	"github.com/go-gost/blackhole/config/loader"
	"github.com/go-gost/blackhole/config/parsing/parser"
	_ "github.com/go-gost/blackhole/handler"
	xlogger "github.com/go-gost/blackhole/logger"
	xmetrics "github.com/go-gost/blackhole/metrics"
	metrics_service "github.com/go-gost/blackhole/metrics/service"
	"github.com/go-gost/blackhole/sim"
	"github.com/go-gost/core/logger"
	"github.com/spf13/pflag"
)

var (
	args      parser.Args
	hold      bool
	outputCfg string
)

func init() {
	pflag.StringVarP(&args.CfgFile, "config", "C", "", "configuration file or inline JSON")
	pflag.IntVarP(&args.Nodes, "nodes", "n", 0, "number of nodes in the relay chain")
	pflag.DurationVarP(&args.Duration, "duration", "t", 0, "simulated time")
	pflag.Int64Var(&args.Seed, "seed", 0, "seed for the per-node drop decisions")
	pflag.StringVarP(&args.Output, "output", "o", "", "trust score telemetry file")
	pflag.IntSliceVarP(&args.Blackholes, "blackhole", "b", nil, "ids of the nodes running the forwarding protocol")
	pflag.StringVar(&args.Handler, "handler", "trust", "protocol for --blackhole nodes, blackhole or trust")
	pflag.Float64VarP(&args.DropProbability, "drop-probability", "p", parser.NoDropProbability, "drop probability for --blackhole nodes")
	pflag.BoolVarP(&args.Debug, "debug", "D", false, "debug mode")
	pflag.BoolVar(&args.Trace, "trace", false, "trace mode")
	pflag.StringVar(&args.ApiAddr, "api", "", "api service address")
	pflag.StringVar(&args.MetricsAddr, "metrics", "", "metrics service address")
	pflag.BoolVar(&hold, "hold", false, "keep the api and metrics services up after the run")
	pflag.StringVarP(&outputCfg, "output-config", "O", "", "print the effective config as yaml or json and exit")
}

func main() {
	pflag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	parser.Init(args)
	cfg, err := parser.Parse()
	if err != nil {
		return err
	}

	if outputCfg != "" {
		return cfg.Write(os.Stdout, outputCfg)
	}

	if err := loader.Load(cfg); err != nil {
		return err
	}
	config.Set(cfg)

	log := logger.Default()
	if log == nil {
		log = xlogger.NewLogger()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics != nil && cfg.Metrics.Addr != "" {
		xmetrics.Enable(true)

		s, err := metrics_service.NewService("tcp", cfg.Metrics.Addr,
			metrics_service.PathOption(cfg.Metrics.Path),
		)
		if err != nil {
			return err
		}
		defer s.Close()
		go func() {
			log.Info("metrics service on ", s.Addr())
			if err := s.Serve(); err != nil {
				log.Error(err)
			}
		}()
	}

	s, err := sim.New(cfg, log.WithFields(map[string]any{"kind": "sim"}))
	if err != nil {
		return err
	}

	if cfg.API != nil && cfg.API.Addr != "" {
		svc, err := api_service.NewService("tcp", cfg.API.Addr,
			api_service.PathPrefixOption(cfg.API.PathPrefix),
			api_service.AccessLogOption(cfg.API.AccessLog),
			api_service.TrustOption(s.Aggregator()),
		)
		if err != nil {
			return err
		}
		defer svc.Close()
		go func() {
			log.Info("api service on ", svc.Addr())
			if err := svc.Serve(); err != nil {
				log.Error(err)
			}
		}()
	}

	summary, err := s.Run(ctx)
	if summary != nil {
		summary.WriteTo(os.Stdout)
	}
	if err != nil {
		return err
	}

	if hold {
		log.Info("run complete, serving until interrupted")
		<-ctx.Done()
	}
	return nil
}
