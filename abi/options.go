package abi

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const DefaultVersion = byte(0)

type (
	Options struct {
		Version         byte
		Log             *zap.SugaredLogger
		MetricsRegistry *prometheus.Registry
		// VerifyOnAttach checks signature against the hash before attaching it
		VerifyOnAttach bool
	}

	Option func(o *Options)
)

func defaultOptions() *Options {
	return &Options{
		Version:        DefaultVersion,
		Log:            zap.NewNop().Sugar(),
		VerifyOnAttach: true,
	}
}

func WithVersion(v byte) Option {
	return func(o *Options) {
		o.Version = v
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *Options) {
		if log != nil {
			o.Log = log
		}
	}
}

func WithMetrics(reg *prometheus.Registry) Option {
	return func(o *Options) {
		o.MetricsRegistry = reg
	}
}

func WithoutSignatureCheck() Option {
	return func(o *Options) {
		o.VerifyOnAttach = false
	}
}
