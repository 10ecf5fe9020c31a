package models

import (
	"encoding/json"
	"time"
)

// SyncStatus is the process-wide view of the client's synchronization state.
// A single instance exists per client session; it is never persisted and is
// rebuilt from the action queue's count on restart.
type SyncStatus struct {
	// IsOnline reports the last connectivity probe result.
	IsOnline bool `json:"is_online"`

	// IsSyncing is true while a flush pass is in flight.
	IsSyncing bool `json:"is_syncing"`

	// LastSyncAt is the completion time of the last flush pass, zero if
	// no pass has completed yet.
	LastSyncAt time.Time `json:"last_sync_at"`

	// QueueDepth is the number of actions currently pending.
	QueueDepth int `json:"queue_depth"`

	// FailedCount is the number of actions that exhausted their retries
	// during the current session.
	FailedCount int `json:"failed_count"`
}

// ActionError describes a terminal per-action failure surfaced to the user.
type ActionError struct {
	// ActionID is the failed action's client-generated ID.
	ActionID string `json:"action_id"`

	// Type is the failed action's kind, used to name the action in
	// user-facing notifications.
	Type ActionType `json:"type"`

	// Err is the human-readable failure description.
	Err string `json:"error"`

	// Terminal is true when the action was dropped from the queue and will
	// not be retried.
	Terminal bool `json:"terminal"`
}

// SyncResult summarizes one flush pass over the action queue.
type SyncResult struct {
	// Processed is the number of actions the pass attempted.
	Processed int `json:"processed"`

	// Succeeded is the number of actions accepted by the server.
	Succeeded int `json:"succeeded"`

	// Failed is the number of actions that failed this pass, whether
	// retried later or dropped.
	Failed int `json:"failed"`

	// Errors holds per-action failure details, in processing order.
	Errors []ActionError `json:"errors,omitempty"`
}

// SyncMarker is the persisted "changes since" cursor for one resource.
// Value is an opaque cursor issued by the server; the client never fabricates
// markers, it only stores what the delta endpoint returned.
type SyncMarker struct {
	Resource  string    `json:"resource"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeltaResponse is the delta-fetch endpoint's reply: a bounded set of changed
// records plus the marker to use for the next incremental fetch.
type DeltaResponse struct {
	// Records are the changed entities, opaque to the sync engine.
	Records []ChangedRecord `json:"records"`

	// NextMarker is the server-issued cursor for the next delta fetch.
	NextMarker string `json:"next_marker"`

	// Full is true when the server served an unrestricted fetch (the
	// client sent no marker or an invalid one).
	Full bool `json:"full"`
}

// ChangedRecord is one entity change returned by a delta or full fetch.
type ChangedRecord struct {
	Resource  string          `json:"resource"`
	EntityID  string          `json:"entity_id"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
	Deleted   bool            `json:"deleted"`
}
