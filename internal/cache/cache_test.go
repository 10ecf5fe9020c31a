package cache

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(maxBytes int64, ttl time.Duration) *Store {
	return New(maxBytes, ttl, logger.Nop())
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(0, 0)

	c.Set("members:m-1", json.RawMessage(`{"name":"Anna"}`))

	value, ok, stale := c.Get("members:m-1")
	require.True(t, ok)
	assert.False(t, stale)
	assert.JSONEq(t, `{"name":"Anna"}`, string(value))

	_, ok, _ = c.Get("members:missing")
	assert.False(t, ok)
}

func TestCacheSetIsIdempotentForSize(t *testing.T) {
	c := newTestCache(0, 0)
	payload := json.RawMessage(`{"name":"Anna"}`)

	c.Set("members:m-1", payload)
	first := c.Bytes()

	// re-setting the same key must replace, not accumulate
	c.Set("members:m-1", payload)
	c.Set("members:m-1", payload)

	assert.Equal(t, first, c.Bytes())
	assert.Equal(t, 1, c.Len())
}

func TestCacheByteCeilingEvictsLRU(t *testing.T) {
	// each entry is ~64 bytes overhead plus key/value, so a 400-byte
	// ceiling holds only a handful of entries
	c := newTestCache(400, 0)

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("key-%d", i), json.RawMessage(`{"v":1}`))
	}

	assert.LessOrEqual(t, c.Bytes(), int64(400))
	assert.Less(t, c.Len(), 10)

	// the most recently written entry survives
	_, ok, _ := c.Get("key-9")
	assert.True(t, ok)

	// the oldest entry was evicted
	_, ok, _ = c.Get("key-0")
	assert.False(t, ok)
}

func TestCacheTTLMarksStale(t *testing.T) {
	c := newTestCache(0, 10*time.Minute)

	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	c.Set("events:e-1", json.RawMessage(`{}`))

	_, ok, stale := c.Get("events:e-1")
	require.True(t, ok)
	assert.False(t, stale)

	// past the TTL the value is still served but flagged stale
	c.now = func() time.Time { return base.Add(11 * time.Minute) }
	value, ok, stale := c.Get("events:e-1")
	require.True(t, ok)
	assert.True(t, stale)
	assert.NotNil(t, value)
}

func TestCacheInvalidateAndMarkStale(t *testing.T) {
	c := newTestCache(0, 0)
	c.Set("groups:g-1", json.RawMessage(`{}`))
	c.Set("groups:g-2", json.RawMessage(`{}`))
	c.Set("events:e-1", json.RawMessage(`{}`))

	c.MarkStale("groups:g-1")
	_, ok, stale := c.Get("groups:g-1")
	require.True(t, ok)
	assert.True(t, stale)

	c.MarkStalePrefix("groups:")
	_, _, stale = c.Get("groups:g-2")
	assert.True(t, stale)
	_, _, stale = c.Get("events:e-1")
	assert.False(t, stale)

	c.Invalidate("groups:g-1")
	_, ok, _ = c.Get("groups:g-1")
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := newTestCache(0, 0)
	c.Set("members:m-1", json.RawMessage(`{}`))
	c.Set("members:m-2", json.RawMessage(`{}`))

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Bytes())
	_, ok, _ := c.Get("members:m-1")
	assert.False(t, ok)
}
