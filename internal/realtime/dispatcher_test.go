package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(100*time.Millisecond, nil, 0, logger.Nop())
}

func event(eventType models.EventType, tenant, entity string, ts time.Time) models.RealtimeEvent {
	return models.RealtimeEvent{
		EventID:   models.NewEventID(),
		Type:      eventType,
		TenantID:  tenant,
		EntityID:  entity,
		Payload:   json.RawMessage(`{}`),
		Timestamp: ts,
	}
}

func TestDispatcherCoalescesSameEntity(t *testing.T) {
	d := newTestDispatcher()
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	var (
		mu  sync.Mutex
		got []models.RealtimeEvent
	)
	d.Subscribe("member.updated", func(e models.RealtimeEvent) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	// three updates for the same member within one window
	first := event(models.EventMemberUpdated, "t1", "m-1", base)
	second := event(models.EventMemberUpdated, "t1", "m-1", base.Add(2*time.Second))
	stale := event(models.EventMemberUpdated, "t1", "m-1", base.Add(time.Second))
	d.Offer(first)
	d.Offer(second)
	d.Offer(stale) // older than second, must lose

	d.flush()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, second.EventID, got[0].EventID)
}

func TestDispatcherKeepsDistinctEntities(t *testing.T) {
	d := newTestDispatcher()
	base := time.Now()

	var (
		mu  sync.Mutex
		got []models.RealtimeEvent
	)
	d.Subscribe("member.updated", func(e models.RealtimeEvent) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	// same type, different entities and tenants: nothing coalesces
	d.Offer(event(models.EventMemberUpdated, "t1", "m-1", base.Add(3*time.Second)))
	d.Offer(event(models.EventMemberUpdated, "t1", "m-2", base.Add(time.Second)))
	d.Offer(event(models.EventMemberUpdated, "t2", "m-1", base.Add(2*time.Second)))

	d.flush()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)

	// delivery is timestamp ascending
	assert.Equal(t, "m-2", got[0].EntityID)
	assert.Equal(t, "t2", got[1].TenantID)
	assert.Equal(t, "m-1", got[2].EntityID)
	assert.Equal(t, "t1", got[2].TenantID)
}

func TestDispatcherSubscriptionKeys(t *testing.T) {
	d := newTestDispatcher()

	var mu sync.Mutex
	var byType, byCompound int
	d.Subscribe("group.updated", func(models.RealtimeEvent) {
		mu.Lock()
		byType++
		mu.Unlock()
	})
	d.Subscribe("group.updated:t1", func(models.RealtimeEvent) {
		mu.Lock()
		byCompound++
		mu.Unlock()
	})

	d.Offer(event(models.EventGroupUpdated, "t1", "g-1", time.Now()))
	d.Offer(event(models.EventGroupUpdated, "t2", "g-2", time.Now()))
	d.flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, byType, "bare type key sees both tenants")
	assert.Equal(t, 1, byCompound, "compound key sees only its tenant")
}

func TestDispatcherUnsubscribe(t *testing.T) {
	d := newTestDispatcher()

	var (
		mu    sync.Mutex
		calls int
	)
	unsubscribe := d.Subscribe("announcement", func(models.RealtimeEvent) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	d.Offer(event(models.EventAnnouncement, "t1", "a-1", time.Now()))
	d.flush()

	unsubscribe()
	unsubscribe() // double call is safe

	d.Offer(event(models.EventAnnouncement, "t1", "a-2", time.Now()))
	d.flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestDispatcherStopDropsBuffer(t *testing.T) {
	d := newTestDispatcher()

	var (
		mu    sync.Mutex
		calls int
	)
	d.Subscribe("announcement", func(models.RealtimeEvent) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	d.Start()
	d.Offer(event(models.EventAnnouncement, "t1", "a-1", time.Now()))
	d.Stop()

	// buffered event is gone; a fresh start must not replay it
	d.Start()
	time.Sleep(250 * time.Millisecond)
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestDispatcherThrottledDelivery(t *testing.T) {
	d := NewDispatcher(20*time.Millisecond, nil, 0, logger.Nop())

	delivered := make(chan models.RealtimeEvent, 1)
	d.Subscribe("member.updated", func(e models.RealtimeEvent) {
		delivered <- e
	})

	d.Start()
	defer d.Stop()

	d.Offer(event(models.EventMemberUpdated, "t1", "m-1", time.Now()))

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("event was not dispatched within the throttle window")
	}
}
