package service

import (
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DefaultPath = "/metrics"
)

type options struct {
	path     string
	gatherer prometheus.Gatherer
}

type Option func(*options)

func PathOption(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// GathererOption serves the given gatherer instead of the default registry.
func GathererOption(g prometheus.Gatherer) Option {
	return func(o *options) {
		o.gatherer = g
	}
}

// Service exposes the prometheus metrics over HTTP.
type Service struct {
	s         *http.Server
	ln        net.Listener
	cclose    chan struct{}
	closeOnce sync.Once
}

func NewService(network, addr string, opts ...Option) (*Service, error) {
	if network == "" {
		network = "tcp"
	}
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}

	var options options
	for _, opt := range opts {
		opt(&options)
	}
	if options.path == "" {
		options.path = DefaultPath
	}

	handler := promhttp.Handler()
	if options.gatherer != nil {
		handler = promhttp.HandlerFor(options.gatherer, promhttp.HandlerOpts{})
	}

	mux := http.NewServeMux()
	mux.Handle(options.path, handler)

	return &Service{
		s: &http.Server{
			Handler: mux,
		},
		ln:     ln,
		cclose: make(chan struct{}),
	}, nil
}

// Serve blocks until the service is closed.
func (s *Service) Serve() error {
	err := s.s.Serve(s.ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Service) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.cclose)
	})
	return s.s.Close()
}

func (s *Service) IsClosed() bool {
	select {
	case <-s.cclose:
		return true
	default:
		return false
	}
}
