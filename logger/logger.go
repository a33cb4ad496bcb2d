package logger

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/go-gost/core/logger"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Name   string
	Output io.Writer
	Format logger.LogFormat
	Level  logger.LogLevel
	Fields map[string]any
}

type Option func(opts *Options)

func NameOption(name string) Option {
	return func(opts *Options) {
		opts.Name = name
	}
}

func OutputOption(out io.Writer) Option {
	return func(opts *Options) {
		opts.Output = out
	}
}

func FormatOption(format logger.LogFormat) Option {
	return func(opts *Options) {
		opts.Format = format
	}
}

func LevelOption(level logger.LogLevel) Option {
	return func(opts *Options) {
		opts.Level = level
	}
}

// FieldsOption attaches fields to every entry of the logger.
func FieldsOption(fields map[string]any) Option {
	return func(opts *Options) {
		opts.Fields = fields
	}
}

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a logrus backed logger. JSON is the default format and
// info the default level.
func NewLogger(opts ...Option) logger.Logger {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	log := logrus.New()
	if options.Output != nil {
		log.SetOutput(options.Output)
	}

	if options.Format == logger.TextFormat {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			DisableHTMLEscape: true,
			TimestampFormat:   "2006-01-02T15:04:05.000Z07:00",
		})
	}

	lvl, err := logrus.ParseLevel(string(options.Level))
	if err != nil || lvl == logrus.PanicLevel {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	entry := logrus.NewEntry(log)
	if options.Name != "" {
		entry = entry.WithField("logger", options.Name)
	}
	if len(options.Fields) > 0 {
		entry = entry.WithFields(logrus.Fields(options.Fields))
	}

	return &logrusLogger{entry: entry}
}

// WithFields adds new fields to log.
func (l *logrusLogger) WithFields(fields map[string]any) logger.Logger {
	return &logrusLogger{
		entry: l.entry.WithFields(logrus.Fields(fields)),
	}
}

// Trace logs a message at level Trace.
func (l *logrusLogger) Trace(args ...any) {
	l.log(logrus.TraceLevel, args...)
}

// Tracef logs a message at level Trace.
func (l *logrusLogger) Tracef(format string, args ...any) {
	l.logf(logrus.TraceLevel, format, args...)
}

// Debug logs a message at level Debug.
func (l *logrusLogger) Debug(args ...any) {
	l.log(logrus.DebugLevel, args...)
}

// Debugf logs a message at level Debug.
func (l *logrusLogger) Debugf(format string, args ...any) {
	l.logf(logrus.DebugLevel, format, args...)
}

// Info logs a message at level Info.
func (l *logrusLogger) Info(args ...any) {
	l.log(logrus.InfoLevel, args...)
}

// Infof logs a message at level Info.
func (l *logrusLogger) Infof(format string, args ...any) {
	l.logf(logrus.InfoLevel, format, args...)
}

// Warn logs a message at level Warn.
func (l *logrusLogger) Warn(args ...any) {
	l.log(logrus.WarnLevel, args...)
}

// Warnf logs a message at level Warn.
func (l *logrusLogger) Warnf(format string, args ...any) {
	l.logf(logrus.WarnLevel, format, args...)
}

// Error logs a message at level Error.
func (l *logrusLogger) Error(args ...any) {
	l.log(logrus.ErrorLevel, args...)
}

// Errorf logs a message at level Error.
func (l *logrusLogger) Errorf(format string, args ...any) {
	l.logf(logrus.ErrorLevel, format, args...)
}

// Fatal logs at level Fatal and exits the process with status 1.
func (l *logrusLogger) Fatal(args ...any) {
	l.log(logrus.FatalLevel, args...)
	l.entry.Logger.Exit(1)
}

// Fatalf logs at level Fatal and exits the process with status 1.
func (l *logrusLogger) Fatalf(format string, args ...any) {
	l.logf(logrus.FatalLevel, format, args...)
	l.entry.Logger.Exit(1)
}

// GetLevel returns the current log level.
func (l *logrusLogger) GetLevel() logger.LogLevel {
	lvl := l.entry.Logger.GetLevel()
	if lvl == logrus.WarnLevel {
		// logrus names it "warning"
		return logger.WarnLevel
	}
	return logger.LogLevel(lvl.String())
}

func (l *logrusLogger) IsLevelEnabled(level logger.LogLevel) bool {
	lvl, err := logrus.ParseLevel(string(level))
	if err != nil {
		return false
	}
	return l.entry.Logger.IsLevelEnabled(lvl)
}

func (l *logrusLogger) log(level logrus.Level, args ...any) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}
	l.withCaller().Log(level, args...)
}

func (l *logrusLogger) logf(level logrus.Level, format string, args ...any) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}
	l.withCaller().Logf(level, format, args...)
}

// withCaller adds the file:line of the logging call when debugging is on.
func (l *logrusLogger) withCaller() *logrus.Entry {
	if !l.entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return l.entry
	}

	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return l.entry.WithField("caller", "<???>")
	}
	file = filepath.Join(filepath.Base(filepath.Dir(file)), filepath.Base(file))
	return l.entry.WithField("caller", fmt.Sprintf("%s:%d", file, line))
}
