package models

import "time"

// CacheEntry is one unit of most-recently-known server state held by the
// local cache store.
type CacheEntry struct {
	// Key identifies the cached resource (collection or single entity).
	Key string `json:"key"`

	// Value is the cached representation.
	Value []byte `json:"value"`

	// LastAccessed is updated on every read and drives LRU eviction.
	LastAccessed time.Time `json:"last_accessed"`

	// SizeEstimate is the entry's contribution to the cache's byte ceiling.
	SizeEstimate int64 `json:"size_estimate"`

	// ExpiresAt is the entry's TTL deadline; zero means no expiry.
	ExpiresAt time.Time `json:"expires_at"`

	// Stale is set by the invalidate reconciliation strategy: the value is
	// still readable but the next read-through should refetch.
	Stale bool `json:"stale"`
}

// Expired reports whether the entry's TTL has passed at the given time.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}
