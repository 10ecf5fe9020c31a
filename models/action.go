package models

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ActionType identifies the kind of user write intent a [QueuedAction]
// carries. The set is closed: the sync manager dispatches each action to a
// handler registered for exactly one of these values.
type ActionType string

const (
	// ActionCheckIn records attendance at a service or event.
	ActionCheckIn ActionType = "check_in"

	// ActionRSVP answers an event invitation.
	ActionRSVP ActionType = "rsvp"

	// ActionGroupJoin requests membership in a group.
	ActionGroupJoin ActionType = "group_join"

	// ActionPathwayStep marks a discipleship pathway step as completed.
	ActionPathwayStep ActionType = "pathway_step"
)

// QueuedAction is a single user-initiated write intent captured while the
// operation cannot complete synchronously (or unconditionally, when the queue
// is used as a write-through buffer).
//
// Exactly one QueuedAction exists per logical user intent. Retries mutate
// RetryCount only; ID and IdempotencyKey stay stable across retries so the
// server can deduplicate a replayed submission.
type QueuedAction struct {
	// ID is the client-generated identifier, stable across retries.
	ID string `json:"id"`

	// Type selects the handler that knows how to submit this action.
	Type ActionType `json:"type"`

	// TargetEndpoint is the write API path the action is posted to.
	TargetEndpoint string `json:"target_endpoint"`

	// Method is the HTTP method of the write call (normally POST).
	Method string `json:"method"`

	// Payload is the opaque JSON body of the write. The queue never
	// interprets it; entity schemas are owned by the server.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is when the user performed the action.
	CreatedAt time.Time `json:"created_at"`

	// RetryCount is how many failed submissions this action has seen.
	RetryCount int `json:"retry_count"`

	// IdempotencyKey is deterministic over the action's content and reused
	// on every retry. See [IdempotencyKey].
	IdempotencyKey string `json:"idempotency_key"`
}

// IdempotencyKey derives a stable key for an action from its type, target
// endpoint and payload using HMAC-SHA256. Two submissions of the same logical
// intent always produce the same key, so the server treats a replay as
// already-applied rather than a duplicate.
func IdempotencyKey(actionType ActionType, endpoint string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(actionType))
	mac.Write([]byte(endpoint))
	mac.Write([]byte{0})
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
