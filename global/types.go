package global

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type (
	Metrics interface {
		MetricsRegistry() *prometheus.Registry
	}

	Logging interface {
		Log() *zap.SugaredLogger
	}

	// Environment bundles logger and optional metrics registry for long-living components
	Environment struct {
		log *zap.SugaredLogger
		reg *prometheus.Registry
	}
)

// NewEnvironment with nil logger uses no-op logger. Nil registry disables metrics
func NewEnvironment(log *zap.SugaredLogger, reg *prometheus.Registry) *Environment {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Environment{log: log, reg: reg}
}

func (e *Environment) Log() *zap.SugaredLogger {
	return e.log
}

func (e *Environment) MetricsRegistry() *prometheus.Registry {
	return e.reg
}
