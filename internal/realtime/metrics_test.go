package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyTrackerEmpty(t *testing.T) {
	tracker := NewLatencyTracker(100)
	assert.Equal(t, time.Duration(0), tracker.P95())
}

func TestLatencyTrackerP95(t *testing.T) {
	tracker := NewLatencyTracker(100)

	// 95 fast samples and 5 slow ones: p95 lands on the slow tail
	for i := 0; i < 95; i++ {
		tracker.Observe(10 * time.Millisecond)
	}
	for i := 0; i < 5; i++ {
		tracker.Observe(3 * time.Second)
	}

	assert.Equal(t, 3*time.Second, tracker.P95())
}

func TestLatencyTrackerRollingWindow(t *testing.T) {
	tracker := NewLatencyTracker(10)

	// fill the window with slow samples, then roll them all out
	for i := 0; i < 10; i++ {
		tracker.Observe(5 * time.Second)
	}
	for i := 0; i < 10; i++ {
		tracker.Observe(time.Millisecond)
	}

	assert.Equal(t, time.Millisecond, tracker.P95())
}

func TestLatencyTrackerClampsClockSkew(t *testing.T) {
	tracker := NewLatencyTracker(10)
	tracker.Observe(-time.Second)

	assert.Equal(t, time.Duration(0), tracker.P95())
}
