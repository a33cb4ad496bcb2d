package recorder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	xlogger "github.com/go-gost/blackhole/logger"
	xmetrics "github.com/go-gost/blackhole/metrics"
	"github.com/go-gost/blackhole/trust"
	"github.com/go-gost/core/logger"
	"github.com/go-gost/core/metrics"
)

const (
	DefaultTrustRecorderFile = "trust_scores.csv"

	trustHeader     = "Time,NodeID,TrustScore"
	blacklistMarker = "BlacklistedNode"
)

var (
	// files that already carry a header in this process.
	headers   = map[string]bool{}
	headersMu sync.Mutex
)

type trustRecorderOptions struct {
	recorder string
	logger   logger.Logger
}

type TrustRecorderOption func(opts *trustRecorderOptions)

func RecorderTrustRecorderOption(recorder string) TrustRecorderOption {
	return func(opts *trustRecorderOptions) {
		opts.recorder = recorder
	}
}

func LoggerTrustRecorderOption(logger logger.Logger) TrustRecorderOption {
	return func(opts *trustRecorderOptions) {
		opts.logger = logger
	}
}

// TrustRecorder appends trust snapshots to a CSV file.
//
// The file is opened in append mode for every export and closed afterwards.
// The header line is written once per process for a given file, on the
// first export that manages to open it.
type TrustRecorder struct {
	path    string
	options trustRecorderOptions
}

func NewTrustRecorder(path string, opts ...TrustRecorderOption) *TrustRecorder {
	var options trustRecorderOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = xlogger.Nop()
	}
	if options.recorder == "" {
		options.recorder = "trust"
	}
	if path == "" {
		path = DefaultTrustRecorderFile
	}

	return &TrustRecorder{
		path:    path,
		options: options,
	}
}

func (r *TrustRecorder) Path() string {
	return r.path
}

// Export appends one row per scored node and one row per blacklisted node,
// all stamped with the simulation time at.
func (r *TrustRecorder) Export(ctx context.Context, at time.Duration, snap trust.Snapshot) (err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			r.options.logger.Errorf("export %s: %v", r.path, err)
		}
	}()

	if err = ctx.Err(); err != nil {
		return
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()

	key := r.key()
	headersMu.Lock()
	defer headersMu.Unlock()

	w := bufio.NewWriter(f)
	if !headers[key] {
		fmt.Fprintln(w, trustHeader)
	}

	ts := formatFloat(at.Seconds())
	for _, e := range snap.Scores {
		fmt.Fprintf(w, "%s,%d,%s\n", ts, e.ID, formatFloat(e.Score))
	}
	for _, id := range snap.Blacklist {
		fmt.Fprintf(w, "%s,%s,%d\n", ts, blacklistMarker, id)
	}
	if err = w.Flush(); err != nil {
		return
	}
	headers[key] = true

	rows := len(snap.Scores) + len(snap.Blacklist)
	labels := metrics.Labels{"recorder": r.options.recorder}
	xmetrics.GetCounter(xmetrics.MetricTelemetryRecordsCounter, labels).Add(float64(rows))
	xmetrics.GetObserver(xmetrics.MetricTelemetryExportDurationObserver, labels).
		Observe(time.Since(start).Seconds())

	r.options.logger.Debugf("exported %d rows at %ss", rows, ts)
	return nil
}

func (r *TrustRecorder) key() string {
	if abs, err := filepath.Abs(r.path); err == nil {
		return abs
	}
	return filepath.Clean(r.path)
}

// formatFloat renders v with six significant digits.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
