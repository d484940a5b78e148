package abi

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	encodedCounter *prometheus.CounterVec
	decodedCounter *prometheus.CounterVec
	errorCounter   *prometheus.CounterVec
	chainWrapsHist prometheus.Histogram
	bodyDepthHist  prometheus.Histogram
	signedCounter  prometheus.Counter
}

func newMetrics(reg *prometheus.Registry) *metrics {
	if reg == nil {
		return nil
	}
	ret := &metrics{
		encodedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellabi_abi_encodedCounter",
			Help: "number of encoded bodies by kind (call, output)",
		}, []string{"kind"}),
		decodedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellabi_abi_decodedCounter",
			Help: "number of successfully decoded bodies by kind (call, output)",
		}, []string{"kind"}),
		errorCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellabi_abi_errorCounter",
			Help: "number of failed encode/decode operations",
		}, []string{"op"}),
		chainWrapsHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellabi_abi_chainWraps",
			Help:    "number of times parameter chain was grown while encoding a body",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		bodyDepthHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellabi_abi_bodyDepth",
			Help:    "depth of encoded body cell tree",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		signedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellabi_abi_signedCounter",
			Help: "number of signatures attached",
		}),
	}
	reg.MustRegister(ret.encodedCounter, ret.decodedCounter, ret.errorCounter, ret.chainWrapsHist, ret.bodyDepthHist, ret.signedCounter)
	return ret
}

func (m *metrics) encoded(kind string, wraps int, depth uint16) {
	if m == nil {
		return
	}
	m.encodedCounter.WithLabelValues(kind).Inc()
	m.chainWrapsHist.Observe(float64(wraps))
	m.bodyDepthHist.Observe(float64(depth))
}

func (m *metrics) decoded(kind string) {
	if m == nil {
		return
	}
	m.decodedCounter.WithLabelValues(kind).Inc()
}

func (m *metrics) failed(op string) {
	if m == nil {
		return
	}
	m.errorCounter.WithLabelValues(op).Inc()
}

func (m *metrics) signed() {
	if m == nil {
		return
	}
	m.signedCounter.Inc()
}
