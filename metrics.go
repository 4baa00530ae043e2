package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricSignInSuccess counts password sign-ins that produced a session.
	MetricSignInSuccess MetricID = iota
	// MetricSignInFailure counts sign-ins rejected by the remote API or input validation.
	MetricSignInFailure
	// MetricSignInRateLimited counts sign-ins refused by the throttle.
	MetricSignInRateLimited
	// MetricFederatedExchangeSuccess counts federated identity exchanges that produced a session.
	MetricFederatedExchangeSuccess
	// MetricFederatedExchangeFailure counts failed federated identity exchanges.
	MetricFederatedExchangeFailure
	// MetricRegisterSuccess counts registrations followed by a session.
	MetricRegisterSuccess
	// MetricRegisterFailure counts rejected registrations, duplicates included.
	MetricRegisterFailure
	// MetricRefreshSuccess counts remote refresh exchanges that succeeded.
	MetricRefreshSuccess
	// MetricRefreshFailure counts remote refresh exchanges that failed.
	MetricRefreshFailure
	// MetricRefreshShared counts resolutions served by another caller's exchange.
	MetricRefreshShared
	// MetricSignOut counts explicit sign-outs that removed a record.
	MetricSignOut
	// MetricForcedSignOut counts sign-outs forced by a session failure.
	MetricForcedSignOut
	// MetricAccessRevoked counts downstream 403 answers.
	MetricAccessRevoked
	// MetricGateRedirect counts requests redirected by the request gate.
	MetricGateRedirect
	// MetricGuardDenied counts admin checks that denied access.
	MetricGuardDenied
	// MetricStoreFailure counts credential store errors.
	MetricStoreFailure
	// MetricResolveLatency is the ResolveSession latency histogram.
	MetricResolveLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters. Each counter sits on its own
// cache line.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] set from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the resolve latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in histogram id. Only MetricResolveLatency is a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricResolveLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricResolveLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricResolveLatency].buckets[i])
		}
		s.Histograms[MetricResolveLatency] = buckets
	}

	return s
}

// Resolution is dominated by the refresh exchange, so buckets run from
// 1ms to over a second.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 1:
		return 0
	case ms <= 5:
		return 1
	case ms <= 25:
		return 2
	case ms <= 100:
		return 3
	case ms <= 250:
		return 4
	case ms <= 500:
		return 5
	case ms <= 1000:
		return 6
	default:
		return 7
	}
}
