// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/cache"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
)

// dedupWindow bounds the remembered event IDs. Old entries roll off FIFO;
// the window only has to outlive realistic at-least-once redelivery gaps.
const dedupWindow = 512

// entityWindow bounds the remembered per-entity timestamps that guard against
// out-of-order application. Old entities roll off FIFO; a late event for a
// rolled-off entity is rare enough that reapplying it is acceptable.
const entityWindow = 4096

// ReconcileStrategy folds one event into the cache.
type ReconcileStrategy func(c *cache.Store, event models.RealtimeEvent)

// MergeStrategy returns the optimistic-merge strategy for a resource: the
// event payload is patched field-by-field over the cached entity keyed
// "<resource>:<entity id>", inserting the entity when absent.
func MergeStrategy(resource string) ReconcileStrategy {
	return func(c *cache.Store, event models.RealtimeEvent) {
		key := resource + ":" + event.EntityID

		existing, ok, _ := c.Get(key)
		if !ok {
			// insert-if-absent covers freshly created entities
			c.Set(key, event.Payload)
			return
		}

		var base, patch map[string]json.RawMessage
		if err := json.Unmarshal(existing, &base); err != nil {
			// cached value is not a mergeable object; replace it
			c.Set(key, event.Payload)
			return
		}
		if err := json.Unmarshal(event.Payload, &patch); err != nil {
			c.MarkStale(key)
			return
		}

		for field, value := range patch {
			base[field] = value
		}

		merged, err := json.Marshal(base)
		if err != nil {
			c.MarkStale(key)
			return
		}
		c.Set(key, merged)
	}
}

// InvalidateStrategy returns the strategy that marks every cache entry under
// prefix stale, forcing a refetch on the next online read. Used for events
// whose payloads are too partial to merge (rosters, aggregated lists).
func InvalidateStrategy(prefix string) ReconcileStrategy {
	return func(c *cache.Store, _ models.RealtimeEvent) {
		c.MarkStalePrefix(prefix)
	}
}

// Reconciler applies realtime events to the local cache. Application is
// idempotent: duplicate event IDs are ignored, and an event older than the
// newest already applied for the same entity is ignored too.
type Reconciler struct {
	cache  *cache.Store
	logger *logger.Logger

	mu          sync.Mutex
	strategies  map[models.EventType]ReconcileStrategy
	seen        map[string]struct{}
	seenOrder   []string
	lastApplied map[string]time.Time
	entityOrder []string
}

// NewReconciler builds a reconciler with no strategies registered; events of
// unregistered types are ignored.
func NewReconciler(cacheStore *cache.Store, log *logger.Logger) *Reconciler {
	return &Reconciler{
		cache:       cacheStore,
		logger:      log,
		strategies:  make(map[models.EventType]ReconcileStrategy),
		seen:        make(map[string]struct{}),
		lastApplied: make(map[string]time.Time),
	}
}

// Register sets the strategy for an event type, replacing any previous one.
func (r *Reconciler) Register(eventType models.EventType, strategy ReconcileStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[eventType] = strategy
}

// Apply implements [EventReconciler].
func (r *Reconciler) Apply(event models.RealtimeEvent) {
	r.mu.Lock()

	if _, dup := r.seen[event.EventID]; dup {
		r.mu.Unlock()
		return
	}
	r.remember(event.EventID)

	entityKey := event.CoalesceKey()
	if last, ok := r.lastApplied[entityKey]; ok && !event.Timestamp.After(last) {
		// an older emission arriving after a newer one must not regress state
		r.mu.Unlock()
		return
	}
	r.rememberEntity(entityKey, event.Timestamp)

	strategy, ok := r.strategies[event.Type]
	r.mu.Unlock()

	if !ok {
		r.logger.Debug().
			Str("func", "Reconciler.Apply").
			Str("type", string(event.Type)).
			Msg("no reconcile strategy registered, ignoring event")
		return
	}

	strategy(r.cache, event)
}

// remember records an event ID, rolling the oldest one off when the window
// is full. Caller holds r.mu.
func (r *Reconciler) remember(eventID string) {
	r.seen[eventID] = struct{}{}
	r.seenOrder = append(r.seenOrder, eventID)

	if len(r.seenOrder) > dedupWindow {
		oldest := r.seenOrder[0]
		r.seenOrder = r.seenOrder[1:]
		delete(r.seen, oldest)
	}
}

// rememberEntity records the entity's newest applied timestamp, rolling the
// oldest entity off when the window is full. Caller holds r.mu.
func (r *Reconciler) rememberEntity(entityKey string, ts time.Time) {
	if _, known := r.lastApplied[entityKey]; !known {
		r.entityOrder = append(r.entityOrder, entityKey)
		if len(r.entityOrder) > entityWindow {
			oldest := r.entityOrder[0]
			r.entityOrder = r.entityOrder[1:]
			delete(r.lastApplied, oldest)
		}
	}
	r.lastApplied[entityKey] = ts
}
