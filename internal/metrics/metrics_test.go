package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/Esraa-27/flash-sale-api/internal/metrics"
)

func TestMetrics_AverageHoldLatency(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveHoldLatency(10 * time.Millisecond)
	m.ObserveHoldLatency(20 * time.Millisecond)
	m.ObserveHoldLatency(30 * time.Millisecond)

	assert.Equal(t, 20*time.Millisecond, m.AverageHoldLatency())
}

func TestMetrics_AverageWithNoSamples(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	assert.Equal(t, time.Duration(0), m.AverageWebhookLatency())
}

func TestMetrics_RingTrimsOldestOnOverflow(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	for i := 0; i < 1000; i++ {
		m.ObserveHoldLatency(10 * time.Millisecond)
	}
	assert.Equal(t, 10*time.Millisecond, m.AverageHoldLatency())

	// One more sample past capacity evicts the oldest 10ms entry.
	m.ObserveHoldLatency(1010 * time.Millisecond)
	assert.Equal(t, 11*time.Millisecond, m.AverageHoldLatency())
}

func TestMetrics_CountersDoNotPanic(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.IncWebhookDuplicate()
	m.IncDeadlockRetry()
	m.IncCacheHit()
	m.IncCacheMiss()
}
