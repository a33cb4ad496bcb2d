package loader

import (
	"github.com/go-gost/blackhole/config"
	logger_parser "github.com/go-gost/blackhole/config/parsing/logger"
	protocol_parser "github.com/go-gost/blackhole/config/parsing/protocol"
	"github.com/go-gost/blackhole/registry"
	"github.com/go-gost/core/logger"
)

var (
	defaultLoader *loader = &loader{}
)

// Load installs the default logger and (re)registers the named loggers and
// the per-node protocols described by cfg.
func Load(cfg *config.Config) error {
	return defaultLoader.Load(cfg)
}

type loader struct{}

func (l *loader) Load(cfg *config.Config) error {
	logCfg := cfg.Log
	if logCfg == nil {
		logCfg = &config.LogConfig{}
	}
	logger.SetDefault(logger_parser.ParseLogger(&config.LoggerConfig{Log: logCfg}))

	return register(cfg)
}

func register(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}

	for name := range registry.LoggerRegistry().GetAll() {
		registry.LoggerRegistry().Unregister(name)
	}
	for _, loggerCfg := range cfg.Loggers {
		if err := registry.LoggerRegistry().Register(loggerCfg.Name, logger_parser.ParseLogger(loggerCfg)); err != nil {
			return err
		}
	}

	for name := range registry.NodeRegistry().GetAll() {
		registry.NodeRegistry().Unregister(name)
	}
	for _, protoCfg := range cfg.Protocols {
		p, err := protocol_parser.ParseProtocol(protoCfg, cfg.Network, logger.Default())
		if err != nil {
			return err
		}
		if p == nil {
			continue
		}
		if err := registry.NodeRegistry().Register(protoCfg.Name, p); err != nil {
			return err
		}
	}

	return nil
}
