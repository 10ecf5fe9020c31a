// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package cache implements the client's in-memory read cache: an LRU keyed
// store with a byte-size ceiling and per-entry TTL. It backs reads while the
// device is offline and absorbs realtime reconciliation updates.
package cache

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
)

// lruCapacity bounds the entry count handed to simplelru. Eviction is driven
// by the byte ceiling, not this number, so it only needs to be comfortably
// larger than any realistic entry population.
const lruCapacity = 16384

// entryOverhead approximates the bookkeeping cost of one entry beyond its
// key and value bytes.
const entryOverhead = 64

// Store is the client read cache. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, *models.CacheEntry]
	maxBytes int64
	bytes    int64
	ttl      time.Duration
	logger   *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// New creates a cache with the given byte ceiling and per-entry TTL.
// maxBytes <= 0 disables the size ceiling; ttl <= 0 disables expiry.
func New(maxBytes int64, ttl time.Duration, log *logger.Logger) *Store {
	s := &Store{
		maxBytes: maxBytes,
		ttl:      ttl,
		logger:   log,
		now:      time.Now,
	}

	// onEvict keeps the byte accounting in step with the LRU
	lru, err := simplelru.NewLRU(lruCapacity, func(_ string, entry *models.CacheEntry) {
		s.bytes -= entry.SizeEstimate
	})
	if err != nil {
		// simplelru only errors on a non-positive capacity
		panic(err)
	}
	s.lru = lru

	return s
}

// Get returns the cached value for key. The second return reports whether a
// usable value was found; the third reports whether the value is stale
// (expired or explicitly marked) and should be revalidated when online.
func (s *Store) Get(key string) (json.RawMessage, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.lru.Get(key)
	if !ok {
		return nil, false, false
	}

	entry.LastAccessed = s.now()
	stale := entry.Stale || entry.Expired(s.now())

	return entry.Value, true, stale
}

// Set stores value under key, replacing any previous entry, then evicts
// least-recently-used entries until the byte ceiling is respected again.
func (s *Store) Set(key string, value json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := &models.CacheEntry{
		Key:          key,
		Value:        value,
		LastAccessed: now,
		SizeEstimate: int64(len(key)+len(value)) + entryOverhead,
	}
	if s.ttl > 0 {
		entry.ExpiresAt = now.Add(s.ttl)
	}

	// Add fires onEvict for a replaced entry, so the accounting below only
	// has to add the new entry's size.
	s.lru.Add(key, entry)
	s.bytes += entry.SizeEstimate

	if s.maxBytes > 0 {
		for s.bytes > s.maxBytes && s.lru.Len() > 1 {
			s.lru.RemoveOldest()
		}
	}
}

// Invalidate removes the entry for key. Removing an absent key is a no-op.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lru.Remove(key)
}

// MarkStale flags the entry for key as stale without dropping its value, so
// offline readers still get data while online readers trigger a refetch.
func (s *Store) MarkStale(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.lru.Peek(key); ok {
		entry.Stale = true
	}
}

// MarkStalePrefix flags every entry whose key starts with prefix. Used when
// an event invalidates a whole resource collection (lists, rosters).
func (s *Store) MarkStalePrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range s.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			if entry, ok := s.lru.Peek(key); ok {
				entry.Stale = true
			}
		}
	}
}

// Clear drops every entry. Called on sign-out so no tenant data survives the
// session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lru.Purge()
	s.bytes = 0

	s.logger.Debug().Str("func", "Store.Clear").Msg("cache cleared")
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lru.Len()
}

// Bytes returns the current estimated cache size.
func (s *Store) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.bytes
}
