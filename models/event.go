package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType is one of the closed set of domain change notifications the
// server broadcasts to connected clients.
type EventType string

const (
	EventMemberUpdated   EventType = "member.updated"
	EventEventUpdated    EventType = "event.updated"
	EventAttendanceAdded EventType = "attendance.added"
	EventGroupUpdated    EventType = "group.updated"
	EventPathwayProgress EventType = "pathway.progress"
	EventAnnouncement    EventType = "announcement"
	EventServiceCounts   EventType = "service.counts"
)

// RealtimeEvent is a server-originated change notification. Events are
// idempotent to apply: delivering the same EventID twice, or an older event
// after a newer one for the same entity, must converge to the same state.
type RealtimeEvent struct {
	// EventID uniquely identifies this emission; consumers deduplicate on
	// it under at-least-once delivery.
	EventID string `json:"event_id"`

	// Type is the domain change notification kind.
	Type EventType `json:"type"`

	// TenantID scopes the event to one organization.
	TenantID string `json:"tenant_id"`

	// EntityID identifies the changed entity within the tenant.
	EntityID string `json:"entity_id"`

	// Payload is the structured data for the changed entity, opaque to the
	// distribution pipeline.
	Payload json.RawMessage `json:"payload"`

	// Timestamp is the server-side time of the state change. Conflicts for
	// the same entity resolve last-timestamp-wins.
	Timestamp time.Time `json:"timestamp"`
}

// NewRealtimeEvent builds an event with a fresh v7 event ID and the current
// time as its timestamp.
func NewRealtimeEvent(eventType EventType, tenantID, entityID string, payload json.RawMessage) RealtimeEvent {
	return RealtimeEvent{
		EventID:   NewEventID(),
		Type:      eventType,
		TenantID:  tenantID,
		EntityID:  entityID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventID returns a time-ordered UUIDv7, falling back to v4 if the
// monotonic source fails.
func NewEventID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}

// CoalesceKey groups events that describe the same entity. Within one
// dispatch window only the newest event per key survives.
func (e RealtimeEvent) CoalesceKey() string {
	return string(e.Type) + "\x00" + e.TenantID + "\x00" + e.EntityID
}

// BroadcastRequest is the envelope the application backend posts to the hub's
// ingest endpoint to fan an event out to subscribers.
type BroadcastRequest struct {
	// Channel is the logical channel the event is published on.
	Channel string `json:"channel"`

	// Event is the notification to distribute.
	Event RealtimeEvent `json:"event"`
}
