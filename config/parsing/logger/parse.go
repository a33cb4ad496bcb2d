package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-gost/blackhole/config"
	xlogger "github.com/go-gost/blackhole/logger"
	"github.com/go-gost/core/logger"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLogger builds a logger from cfg, or nil when nothing is configured.
//
// Output is one of stdout, stderr (default), none/null or a file path.
// File output is rotated by lumberjack when a rotation section is given.
func ParseLogger(cfg *config.LoggerConfig) logger.Logger {
	if cfg == nil || cfg.Log == nil {
		return nil
	}

	var out io.Writer
	switch cfg.Log.Output {
	case "none", "null":
		return xlogger.Nop()
	case "stdout":
		out = os.Stdout
	case "stderr", "":
		out = os.Stderr
	default:
		out = fileOutput(cfg.Log)
	}

	return xlogger.NewLogger(
		xlogger.NameOption(cfg.Name),
		xlogger.FormatOption(logger.LogFormat(cfg.Log.Format)),
		xlogger.LevelOption(logger.LogLevel(cfg.Log.Level)),
		xlogger.OutputOption(out),
	)
}

func fileOutput(cfg *config.LogConfig) io.Writer {
	if rot := cfg.Rotation; rot != nil {
		return &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    rot.MaxSize,
			MaxAge:     rot.MaxAge,
			MaxBackups: rot.MaxBackups,
			LocalTime:  rot.LocalTime,
			Compress:   rot.Compress,
		}
	}

	os.MkdirAll(filepath.Dir(cfg.Output), 0755)
	f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		if log := logger.Default(); log != nil {
			log.Warn(err)
		}
		return os.Stderr
	}
	return f
}
