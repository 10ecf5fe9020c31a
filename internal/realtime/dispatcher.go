// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package realtime

import (
	"sort"
	"sync"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
)

// EventHandler consumes one dispatched event. Handlers run on the dispatch
// goroutine and must not block.
type EventHandler func(models.RealtimeEvent)

// Dispatcher buffers inbound events and delivers them to subscribers on a
// throttle tick. Within one window, events for the same (type, tenant,
// entity) coalesce down to the one with the greatest timestamp, and the
// surviving events are delivered in timestamp order.
type Dispatcher struct {
	throttle      time.Duration
	tracker       *LatencyTracker
	warnThreshold time.Duration
	logger        *logger.Logger

	mu      sync.Mutex
	pending map[string]models.RealtimeEvent
	subs    map[string]map[int]EventHandler
	nextSub int

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// now is swappable for tests
	now func() time.Time
}

// NewDispatcher creates a dispatcher flushing every throttle interval.
func NewDispatcher(throttle time.Duration, tracker *LatencyTracker, warnThreshold time.Duration, log *logger.Logger) *Dispatcher {
	if throttle <= 0 {
		throttle = 100 * time.Millisecond
	}

	return &Dispatcher{
		throttle:      throttle,
		tracker:       tracker,
		warnThreshold: warnThreshold,
		logger:        log,
		pending:       make(map[string]models.RealtimeEvent),
		subs:          make(map[string]map[int]EventHandler),
		now:           time.Now,
	}
}

// Start launches the flush loop. Starting an already running dispatcher is a
// no-op. Subscriptions survive Stop/Start cycles; buffered events do not.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	stopCh := make(chan struct{})
	d.stopCh = stopCh
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ticker := time.NewTicker(d.throttle)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				d.flush()
			}
		}
	}()
}

// Stop halts the flush loop and drops any buffered events. Safe to call more
// than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()

	d.mu.Lock()
	d.pending = make(map[string]models.RealtimeEvent)
	d.mu.Unlock()
}

// Offer buffers an inbound event for the next dispatch window. A newer event
// for the same coalesce key replaces the buffered one; an older event is
// discarded.
func (d *Dispatcher) Offer(event models.RealtimeEvent) {
	key := event.CoalesceKey()

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.pending[key]; ok && !event.Timestamp.After(existing.Timestamp) {
		return
	}
	d.pending[key] = event
}

// Subscribe registers a handler under a subscription key: a bare event type
// ("member.updated") or a type:tenant compound ("member.updated:tenant-1").
// The returned function removes the subscription; calling it twice is safe.
func (d *Dispatcher) Subscribe(key string, handler EventHandler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.subs[key] == nil {
		d.subs[key] = make(map[int]EventHandler)
	}
	id := d.nextSub
	d.nextSub++
	d.subs[key][id] = handler

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		delete(d.subs[key], id)
		if len(d.subs[key]) == 0 {
			delete(d.subs, key)
		}
	}
}

// flush delivers the buffered window: coalesced events sorted by timestamp
// ascending, each offered to the bare-type and type:tenant subscriber sets.
func (d *Dispatcher) flush() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}

	batch := make([]models.RealtimeEvent, 0, len(d.pending))
	for _, event := range d.pending {
		batch = append(batch, event)
	}
	d.pending = make(map[string]models.RealtimeEvent)

	handlers := make([][]EventHandler, len(batch))
	sort.Slice(batch, func(i, j int) bool { return batch[i].Timestamp.Before(batch[j].Timestamp) })
	for i, event := range batch {
		for _, h := range d.subs[string(event.Type)] {
			handlers[i] = append(handlers[i], h)
		}
		for _, h := range d.subs[string(event.Type)+":"+event.TenantID] {
			handlers[i] = append(handlers[i], h)
		}
	}
	d.mu.Unlock()

	now := d.now()
	for i, event := range batch {
		for _, handler := range handlers[i] {
			handler(event)
		}
		if d.tracker != nil {
			d.tracker.Observe(now.Sub(event.Timestamp))
		}
	}

	if d.tracker != nil && d.warnThreshold > 0 {
		if p95 := d.tracker.P95(); p95 > d.warnThreshold {
			d.logger.Warn().
				Str("func", "Dispatcher.flush").
				Dur("p95", p95).
				Dur("threshold", d.warnThreshold).
				Msg("event delivery latency p95 above threshold")
		}
	}
}
