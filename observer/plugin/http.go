package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	xlogger "github.com/go-gost/blackhole/logger"
	xstats "github.com/go-gost/blackhole/observer/stats"
	"github.com/go-gost/core/logger"
	"github.com/go-gost/core/observer"
)

const defaultTimeout = 5 * time.Second

type observeRequest struct {
	Events []event `json:"events"`
}

type event struct {
	Type  observer.EventType `json:"type"`
	Node  string             `json:"node"`
	Stats *statsEvent        `json:"stats,omitempty"`
}

type statsEvent struct {
	Forwarded uint64 `json:"forwarded"`
	Dropped   uint64 `json:"dropped"`
}

type httpPluginResponse struct {
	OK bool `json:"ok"`
}

type options struct {
	timeout time.Duration
	header  http.Header
	logger  logger.Logger
}

type Option func(opts *options)

func TimeoutOption(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

func HeaderOption(header http.Header) Option {
	return func(opts *options) {
		opts.header = header
	}
}

func LoggerOption(logger logger.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

type httpPlugin struct {
	url    string
	client *http.Client
	header http.Header
	log    logger.Logger
}

// NewHTTPPlugin creates an Observer that posts the per-node forwarding
// counters as JSON to url.
func NewHTTPPlugin(name string, url string, opts ...Option) observer.Observer {
	var options options
	for _, opt := range opts {
		opt(&options)
	}
	if options.timeout <= 0 {
		options.timeout = defaultTimeout
	}
	if options.logger == nil {
		options.logger = xlogger.Nop()
	}

	if !strings.HasPrefix(url, "http") {
		url = "http://" + url
	}
	return &httpPlugin{
		url:    url,
		client: &http.Client{Timeout: options.timeout},
		header: options.header,
		log: options.logger.WithFields(map[string]any{
			"kind":     "observer",
			"observer": name,
		}),
	}
}

func (p *httpPlugin) Observe(ctx context.Context, events []observer.Event, opts ...observer.Option) error {
	if p.client == nil || len(events) == 0 {
		return nil
	}

	var r observeRequest
	for _, e := range events {
		ev, ok := e.(xstats.StatsEvent)
		if !ok || e.Type() != observer.EventStats {
			continue
		}
		r.Events = append(r.Events, event{
			Type: ev.Type(),
			Node: ev.Node,
			Stats: &statsEvent{
				Forwarded: ev.Forwarded,
				Dropped:   ev.Dropped,
			},
		})
	}
	if len(r.Events) == 0 {
		return nil
	}

	v, err := json.Marshal(r)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(v))
	if err != nil {
		return err
	}

	if p.header != nil {
		req.Header = p.header.Clone()
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(resp.Status)
	}

	res := httpPluginResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return err
	}

	if !res.OK {
		return errors.New("observe failed")
	}

	p.log.Debugf("observed %d events", len(r.Events))
	return nil
}
