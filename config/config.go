package config

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	v = viper.GetViper()
)

func init() {
	v.SetConfigName("blackhole")
	v.AddConfigPath("/etc/blackhole/")
	v.AddConfigPath("$HOME/.blackhole/")
	v.AddConfigPath(".")
}

var (
	global    = &Config{}
	globalMux sync.RWMutex
)

func Global() *Config {
	globalMux.RLock()
	defer globalMux.RUnlock()

	cfg := &Config{}
	*cfg = *global
	return cfg
}

func Set(c *Config) {
	globalMux.Lock()
	defer globalMux.Unlock()

	global = c
}

// WriteGlobal encodes the global config while holding the read lock, so
// OnUpdate cannot mutate protocol metadata mid-encoding.
func WriteGlobal(w io.Writer, format string) error {
	globalMux.RLock()
	defer globalMux.RUnlock()

	return global.Write(w, format)
}

func OnUpdate(f func(c *Config) error) error {
	globalMux.Lock()
	defer globalMux.Unlock()

	return f(global)
}

type LogConfig struct {
	Output   string             `yaml:",omitempty" json:"output,omitempty"`
	Level    string             `yaml:",omitempty" json:"level,omitempty"`
	Format   string             `yaml:",omitempty" json:"format,omitempty"`
	Rotation *LogRotationConfig `yaml:",omitempty" json:"rotation,omitempty"`
}

type LogRotationConfig struct {
	// MaxSize is the maximum size in megabytes of the log file before it gets
	// rotated. It defaults to 100 megabytes.
	MaxSize int `yaml:"maxSize,omitempty" json:"maxSize,omitempty"`
	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int `yaml:"maxAge,omitempty" json:"maxAge,omitempty"`
	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int  `yaml:"maxBackups,omitempty" json:"maxBackups,omitempty"`
	LocalTime  bool `yaml:"localTime,omitempty" json:"localTime,omitempty"`
	Compress   bool `yaml:"compress,omitempty" json:"compress,omitempty"`
}

type LoggerConfig struct {
	Name string     `json:"name"`
	Log  *LogConfig `yaml:",omitempty" json:"log,omitempty"`
}

type APIConfig struct {
	Addr       string `json:"addr"`
	PathPrefix string `yaml:"pathPrefix,omitempty" json:"pathPrefix,omitempty"`
	AccessLog  bool   `yaml:"accesslog,omitempty" json:"accesslog,omitempty"`
}

type MetricsConfig struct {
	Addr string `json:"addr"`
	Path string `yaml:",omitempty" json:"path,omitempty"`
}

// TelemetryConfig controls the periodic trust score export.
type TelemetryConfig struct {
	Output   string          `yaml:",omitempty" json:"output,omitempty"`
	Interval time.Duration   `yaml:",omitempty" json:"interval,omitempty"`
	Observer *ObserverConfig `yaml:",omitempty" json:"observer,omitempty"`
}

// ObserverConfig is an HTTP endpoint receiving the per-node forwarding
// counters on every export round.
type ObserverConfig struct {
	Name    string        `json:"name"`
	Addr    string        `json:"addr"`
	Timeout time.Duration `yaml:",omitempty" json:"timeout,omitempty"`
}

// NetworkConfig describes the simulated relay chain driving the protocols.
type NetworkConfig struct {
	Nodes      int           `json:"nodes"`
	Duration   time.Duration `yaml:",omitempty" json:"duration,omitempty"`
	Rate       int           `yaml:",omitempty" json:"rate,omitempty"`
	PacketSize int           `yaml:"packetSize,omitempty" json:"packetSize,omitempty"`
	HopLatency time.Duration `yaml:"hopLatency,omitempty" json:"hopLatency,omitempty"`
	Seed       int64         `yaml:",omitempty" json:"seed,omitempty"`
	// Source defaults to node 1, Sink to the last node.
	Source *int `yaml:",omitempty" json:"source,omitempty"`
	Sink   *int `yaml:",omitempty" json:"sink,omitempty"`
}

// ProtocolConfig attaches a forwarding protocol to a node.
type ProtocolConfig struct {
	Name     string         `json:"name"`
	Node     int            `json:"node"`
	Handler  string         `json:"handler"`
	Logger   string         `yaml:",omitempty" json:"logger,omitempty"`
	Metadata map[string]any `yaml:",omitempty" json:"metadata,omitempty"`
}

type Config struct {
	Network   *NetworkConfig    `yaml:",omitempty" json:"network,omitempty"`
	Protocols []*ProtocolConfig `yaml:",omitempty" json:"protocols,omitempty"`
	Telemetry *TelemetryConfig  `yaml:",omitempty" json:"telemetry,omitempty"`
	Loggers   []*LoggerConfig   `yaml:",omitempty" json:"loggers,omitempty"`
	Log       *LogConfig        `yaml:",omitempty" json:"log,omitempty"`
	API       *APIConfig        `yaml:",omitempty" json:"api,omitempty"`
	Metrics   *MetricsConfig    `yaml:",omitempty" json:"metrics,omitempty"`
}

// Load reads the first blackhole.{yaml,json,...} found in the search paths.
func (c *Config) Load() error {
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(c)
}

// Read parses r in the given format (yaml, json, toml...).
func (c *Config) Read(r io.Reader, format string) error {
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return err
	}

	return v.Unmarshal(c)
}

func (c *Config) ReadFile(file string) error {
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(c)
}

func (c *Config) Write(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	default:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		enc.SetIndent(2)

		return enc.Encode(c)
	}
}
