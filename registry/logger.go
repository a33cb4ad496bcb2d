package registry

import (
	"github.com/go-gost/core/logger"
)

var loggerReg Registry[logger.Logger] = new(loggerRegistry)

// loggerRegistry rejects nil loggers so lookups never hand one out.
type loggerRegistry struct {
	registry[logger.Logger]
}

func (r *loggerRegistry) Register(name string, v logger.Logger) error {
	if v == nil {
		return nil
	}
	return r.registry.Register(name, v)
}

// LoggerRegistry holds the named loggers protocols can refer to.
func LoggerRegistry() Registry[logger.Logger] {
	return loggerReg
}
