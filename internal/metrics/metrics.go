// Package metrics provides Prometheus metrics for the OT7 tool.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "ot7"
)

// Metrics contains all Prometheus metrics for the encode/decode pipeline.
type Metrics struct {
	// Record counts
	EncodeOpsTotal prometheus.Counter
	DecodeOpsTotal prometheus.Counter
	EncodeErrors   *prometheus.CounterVec
	DecodeErrors   *prometheus.CounterVec

	// Data volume
	BytesEncoded *prometheus.CounterVec
	BytesDecoded *prometheus.CounterVec

	// Key consumption
	KeyBytesConsumed *prometheus.CounterVec
	FillBytesDrawn   prometheus.Counter
	KeyBytesErased   *prometheus.CounterVec

	// Verification
	ChecksumFailures prometheus.Counter
	CandidateTrials  prometheus.Histogram

	// Latency
	EncodeLatency    prometheus.Histogram
	DecodeLatency    prometheus.Histogram
	AllocationLatency prometheus.Histogram

	// Self-test
	SelfTestsRun    prometheus.Counter
	SelfTestFailures prometheus.Counter
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Default returns the default metrics instance.
func Default() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}

// NewMetrics creates a new Metrics instance registered against the
// default Prometheus registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a new Metrics instance with a custom
// registry, so package tests don't collide on
// prometheus.DefaultRegisterer. cmd/ot7, serve-metrics included, uses
// Default, which registers on prometheus.DefaultRegisterer.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EncodeOpsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encode_ops_total",
			Help:      "Total number of encode operations completed successfully",
		}),
		DecodeOpsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_ops_total",
			Help:      "Total number of decode operations completed successfully",
		}),
		EncodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encode_errors_total",
			Help:      "Total encode failures by result code",
		}, []string{"result_code"}),
		DecodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Total decode failures by result code",
		}, []string{"result_code"}),

		BytesEncoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_encoded_total",
			Help:      "Total plaintext bytes consumed by encode, by field",
		}, []string{"field"}),
		BytesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_decoded_total",
			Help:      "Total plaintext bytes produced by decode, by field",
		}, []string{"field"}),

		KeyBytesConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_bytes_consumed_total",
			Help:      "Total one-time pad bytes committed to the consumption log, by key id",
		}, []string{"key_id"}),
		FillBytesDrawn: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fill_bytes_drawn_total",
			Help:      "Total padding bytes mixed into TextFill across all encode operations",
		}),
		KeyBytesErased: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_bytes_erased_total",
			Help:      "Total one-time pad bytes zeroed by the erase option, by key id",
		}, []string{"key_id"}),

		ChecksumFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checksum_failures_total",
			Help:      "Total decode attempts whose output checksum did not match",
		}),
		CandidateTrials: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_candidate_trials",
			Help:      "Number of key-map candidates tried per decode before a match (or exhaustion)",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),

		EncodeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "encode_latency_seconds",
			Help:      "Histogram of end-to-end encode latency",
			Buckets:   prometheus.DefBuckets,
		}),
		DecodeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_latency_seconds",
			Help:      "Histogram of end-to-end decode latency",
			Buckets:   prometheus.DefBuckets,
		}),
		AllocationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "key_allocation_latency_seconds",
			Help:      "Histogram of key-store reserve+commit latency",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),

		SelfTestsRun: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "self_tests_run_total",
			Help:      "Total Skein1024 self-tests run at startup",
		}),
		SelfTestFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "self_test_failures_total",
			Help:      "Total Skein1024 self-tests that failed",
		}),
	}
}

// RecordEncode records a successful encode operation.
func (m *Metrics) RecordEncode(textBytes, fillBytes int, latencySeconds float64) {
	m.EncodeOpsTotal.Inc()
	m.BytesEncoded.WithLabelValues("text").Add(float64(textBytes))
	m.FillBytesDrawn.Add(float64(fillBytes))
	m.EncodeLatency.Observe(latencySeconds)
}

// RecordEncodeError records a failed encode operation.
func (m *Metrics) RecordEncodeError(resultCode string) {
	m.EncodeErrors.WithLabelValues(resultCode).Inc()
}

// RecordDecode records a successful decode operation.
func (m *Metrics) RecordDecode(textBytes int, trials int, latencySeconds float64) {
	m.DecodeOpsTotal.Inc()
	m.BytesDecoded.WithLabelValues("text").Add(float64(textBytes))
	m.CandidateTrials.Observe(float64(trials))
	m.DecodeLatency.Observe(latencySeconds)
}

// RecordDecodeError records a failed decode operation.
func (m *Metrics) RecordDecodeError(resultCode string) {
	m.DecodeErrors.WithLabelValues(resultCode).Inc()
}

// RecordChecksumFailure records a decode whose recovered plaintext did not
// match its checksum (spec.md §4.4's InvalidChecksumDecrypted case). The
// failure is non-fatal to output: the plaintext is still written and the
// decode reports the error.
func (m *Metrics) RecordChecksumFailure() {
	m.ChecksumFailures.Inc()
}

// RecordKeyConsumption records bytes committed to a key file's
// consumption log.
func (m *Metrics) RecordKeyConsumption(keyID string, n int) {
	m.KeyBytesConsumed.WithLabelValues(keyID).Add(float64(n))
}

// RecordKeyErasure records bytes zeroed by the erase-on-use option.
func (m *Metrics) RecordKeyErasure(keyID string, n int) {
	m.KeyBytesErased.WithLabelValues(keyID).Add(float64(n))
}

// RecordAllocation records the latency of a key-store reserve+commit
// cycle.
func (m *Metrics) RecordAllocation(latencySeconds float64) {
	m.AllocationLatency.Observe(latencySeconds)
}

// RecordSelfTest records the outcome of the Skein1024 startup self-test.
func (m *Metrics) RecordSelfTest(ok bool) {
	m.SelfTestsRun.Inc()
	if !ok {
		m.SelfTestFailures.Inc()
	}
}
