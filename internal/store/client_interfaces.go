package store

import (
	"context"

	"github.com/MKhiriev/go-flock-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// ActionQueue is the durable, ordered store of pending write actions.
//
// Ordering is FIFO in insertion order. The queue must tolerate one writer
// (Enqueue from business logic) and one drainer (the sync manager's flush
// loop) operating concurrently; implementations serialise access internally.
type ActionQueue interface {
	// Enqueue appends an action and returns its ID. The write must survive
	// process restart on durable implementations.
	Enqueue(ctx context.Context, action models.QueuedAction) (string, error)

	// List returns all pending actions in insertion order, oldest first.
	List(ctx context.Context) ([]models.QueuedAction, error)

	// Remove deletes the action with the given ID. Removing an absent
	// action returns ErrActionNotFound.
	Remove(ctx context.Context, actionID string) error

	// UpdateRetryCount sets the retry counter of the action with the given ID.
	UpdateRetryCount(ctx context.Context, actionID string, retryCount int) error

	// Count returns the number of pending actions.
	Count(ctx context.Context) (int, error)
}

// SyncMarkerStore persists per-resource delta-sync cursors.
type SyncMarkerStore interface {
	// GetMarker returns the stored marker for a resource, or
	// ErrMarkerNotFound if the resource has never completed a sync.
	GetMarker(ctx context.Context, resource string) (models.SyncMarker, error)

	// SetMarker stores (upserts) the marker for a resource.
	SetMarker(ctx context.Context, marker models.SyncMarker) error
}
