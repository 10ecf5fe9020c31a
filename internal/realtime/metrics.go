// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package realtime

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker keeps a rolling window of event delivery latencies
// (server timestamp to local dispatch) and reports the p95 over that window.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	filled  bool
}

// NewLatencyTracker creates a tracker over a window of size samples.
func NewLatencyTracker(window int) *LatencyTracker {
	if window <= 0 {
		window = 100
	}
	return &LatencyTracker{
		samples: make([]time.Duration, window),
	}
}

// Observe records one delivery latency. Negative samples (clock skew between
// server and device) are clamped to zero.
func (t *LatencyTracker) Observe(latency time.Duration) {
	if latency < 0 {
		latency = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples[t.next] = latency
	t.next++
	if t.next == len(t.samples) {
		t.next = 0
		t.filled = true
	}
}

// P95 returns the 95th percentile latency over the current window, or zero
// when nothing has been observed yet.
func (t *LatencyTracker) P95() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := t.next
	if t.filled {
		count = len(t.samples)
	}
	if count == 0 {
		return 0
	}

	sorted := make([]time.Duration, count)
	copy(sorted, t.samples[:count])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (count * 95) / 100
	if idx >= count {
		idx = count - 1
	}

	return sorted[idx]
}
