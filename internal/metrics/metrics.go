// Package metrics implements the lock-free counters and bounded timing
// rings spec §4.4 requires, mirrored onto Prometheus collectors (grounded
// on dshills-langgraph-go's prometheus/client_golang usage) so the service
// is scrapable the way the rest of the retrieved pack's services are.
// Nothing here may block a request path; overflow trims the oldest sample.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ringCapacity bounds each timing ring at 1000 samples (spec §4.4).
const ringCapacity = 1000

// ring is a fixed-capacity FIFO of latency samples. Once full, the oldest
// sample is trimmed to make room for the newest.
type ring struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	full    bool
}

func newRing() *ring {
	return &ring{samples: make([]time.Duration, ringCapacity)}
}

func (r *ring) observe(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[r.next] = d
	r.next = (r.next + 1) % ringCapacity
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) average() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.next
	if r.full {
		n = ringCapacity
	}
	if n == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < n; i++ {
		total += r.samples[i]
	}
	return total / time.Duration(n)
}

// Metrics holds every counter and timing ring spec §4.4 names. Counters
// are implemented with atomically-updated Prometheus collectors, which
// satisfies "monotonic, loss of a single increment is acceptable"
// (spec §5) without any locking on the hot path.
type Metrics struct {
	webhookDuplicates prometheus.Counter
	deadlockRetries   prometheus.Counter
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter

	holdLatency    prometheus.Histogram
	webhookLatency prometheus.Histogram

	holdRing    *ring
	webhookRing *ring
}

// New constructs a Metrics instance and registers its collectors with reg.
// Pass prometheus.NewRegistry() in tests to avoid colliding with the
// default global registry across parallel test runs.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashsale_webhook_duplicates_total",
			Help: "Webhook deliveries short-circuited as idempotent replays.",
		}),
		deadlockRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashsale_deadlock_retries_total",
			Help: "Transaction attempts retried after a contention error.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashsale_cache_hits_total",
			Help: "Available-stock cache lookups that hit.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashsale_cache_misses_total",
			Help: "Available-stock cache lookups that missed.",
		}),
		holdLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flashsale_hold_creation_seconds",
			Help:    "Latency of hold creation, end to end.",
			Buckets: prometheus.DefBuckets,
		}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flashsale_webhook_processing_seconds",
			Help:    "Latency of webhook processing, end to end.",
			Buckets: prometheus.DefBuckets,
		}),
		holdRing:    newRing(),
		webhookRing: newRing(),
	}
	if reg != nil {
		reg.MustRegister(m.webhookDuplicates, m.deadlockRetries, m.cacheHits, m.cacheMisses, m.holdLatency, m.webhookLatency)
	}
	return m
}

func (m *Metrics) IncWebhookDuplicate() { m.webhookDuplicates.Inc() }
func (m *Metrics) IncDeadlockRetry()    { m.deadlockRetries.Inc() }
func (m *Metrics) IncCacheHit()         { m.cacheHits.Inc() }
func (m *Metrics) IncCacheMiss()        { m.cacheMisses.Inc() }

// ObserveHoldLatency records a hold-creation latency sample.
func (m *Metrics) ObserveHoldLatency(d time.Duration) {
	m.holdLatency.Observe(d.Seconds())
	m.holdRing.observe(d)
}

// ObserveWebhookLatency records a webhook-processing latency sample.
func (m *Metrics) ObserveWebhookLatency(d time.Duration) {
	m.webhookLatency.Observe(d.Seconds())
	m.webhookRing.observe(d)
}

// AverageHoldLatency returns the mean of the last (up to 1000) hold
// creation latencies.
func (m *Metrics) AverageHoldLatency() time.Duration { return m.holdRing.average() }

// AverageWebhookLatency returns the mean of the last (up to 1000) webhook
// processing latencies.
func (m *Metrics) AverageWebhookLatency() time.Duration { return m.webhookRing.average() }
