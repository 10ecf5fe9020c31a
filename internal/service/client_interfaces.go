// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"

	"github.com/MKhiriev/go-flock-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_service_mock.go -package=mock

// SyncStatusHandler observes sync status changes. Handlers run on the
// notifying goroutine and must not block.
type SyncStatusHandler func(models.SyncStatus)

// SyncManager owns the offline write path: it accepts user actions into the
// durable queue and replays them against the API when connectivity allows.
type SyncManager interface {
	// Initialize prepares the manager for use. Calling it again is a no-op.
	Initialize(ctx context.Context) error

	// EnqueueAction records a user write intent. The action is durable
	// before EnqueueAction returns; if the device is online a background
	// flush is kicked off.
	EnqueueAction(ctx context.Context, actionType models.ActionType, endpoint, method string, payload json.RawMessage) (string, error)

	// FlushQueue drains the action queue strictly oldest-first. It returns
	// ErrOffline without touching the queue when the device is offline, and
	// ErrSyncInProgress when another flush is running.
	FlushQueue(ctx context.Context) (models.SyncResult, error)

	// SyncNow triggers an immediate flush. Unlike FlushQueue it degrades to
	// a zero-value no-op result when a flush is already running.
	SyncNow(ctx context.Context) (models.SyncResult, error)

	// DeltaSync fetches records of resource changed since the stored
	// marker, falls back to a full fetch when the server no longer accepts
	// the marker, folds the records into the local cache and persists the
	// new marker.
	DeltaSync(ctx context.Context, resource string) ([]models.ChangedRecord, error)

	// Status reports the current sync state.
	Status(ctx context.Context) models.SyncStatus

	// OnStatusChange registers a status observer. The returned function
	// removes it.
	OnStatusChange(handler SyncStatusHandler) func()

	// SetOnline records a connectivity transition. An offline-to-online
	// transition triggers a background flush.
	SetOnline(ctx context.Context, online bool)

	// NotifyForeground signals that the app returned to the foreground,
	// which triggers a background flush when online.
	NotifyForeground(ctx context.Context)
}

// ActionHandler submits one queued action of a registered type. A nil return
// removes the action from the queue; sentinel errors from the adapter package
// steer retry and drop decisions.
type ActionHandler func(ctx context.Context, action models.QueuedAction) error

// EventReconciler folds realtime events into the local cache so reads
// converge without a refetch.
type EventReconciler interface {
	// Apply folds one event into the cache. Applying the same event twice,
	// or an older event after a newer one for the same entity, leaves the
	// cache unchanged.
	Apply(event models.RealtimeEvent)
}
