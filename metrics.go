package menugate

import "sync/atomic"

// MetricID identifies one gateway counter.
//
// MetricID values are stable for the lifetime of the process.
type MetricID uint16

const (
	// MetricCallSuccess counts calls that returned a success envelope.
	MetricCallSuccess MetricID = iota
	// MetricCallOffline counts calls short-circuited by the offline gate.
	MetricCallOffline
	// MetricCallTimeout counts calls abandoned at their deadline.
	MetricCallTimeout
	// MetricCallNetwork counts transport-level failures.
	MetricCallNetwork
	// MetricCallUnauthorized counts 401/403-equivalent responses.
	MetricCallUnauthorized
	// MetricCallServer counts non-success statuses and malformed bodies.
	MetricCallServer
	// MetricSnapshotServed counts reads answered from the snapshot store.
	MetricSnapshotServed
	// MetricSnapshotMiss counts failed reads with no snapshot to serve.
	MetricSnapshotMiss
	// MetricMutationQueued counts writes deferred to the pending queue.
	MetricMutationQueued
	// MetricMutationReplayed counts queued mutations confirmed during flush.
	MetricMutationReplayed
	// MetricMutationRetained counts queued mutations that failed replay and
	// stayed queued.
	MetricMutationRetained
	// MetricFlushRuns counts flushes that actually executed.
	MetricFlushRuns
	// MetricFlushSuppressed counts flush invocations that were no-ops
	// because one was already in flight.
	MetricFlushSuppressed
	// MetricReconcileChanged counts reconciliations that changed the
	// permission set and notified subscribers.
	MetricReconcileChanged
	// MetricReconcileUnchanged counts reconciliations with an identical set.
	MetricReconcileUnchanged
	// MetricReconcileFailed counts reconciliation fetches that failed.
	MetricReconcileFailed
	// MetricCredentialMinted counts synthesized credentials.
	MetricCredentialMinted
	// MetricCredentialReused counts calls that reused an unexpired
	// credential.
	MetricCredentialReused

	metricCount
)

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Metrics is the lock-free counter set behind [Gateway.MetricsSnapshot].
type Metrics struct {
	enabled  bool
	counters [metricCount]atomic.Uint64
}

// NewMetrics creates a [Metrics] honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter. Disabled metrics make this a no-op.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies every counter. It is safe to call concurrently with Inc.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
