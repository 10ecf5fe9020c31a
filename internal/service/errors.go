package service

import "errors"

var (
	// ErrOffline is returned by FlushQueue when the device has no
	// connectivity. The queue is left untouched.
	ErrOffline = errors.New("device is offline")

	// ErrSyncInProgress is returned by FlushQueue when another flush holds
	// the sync lock.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNotInitialized is returned when the sync manager is used before
	// Initialize.
	ErrNotInitialized = errors.New("sync manager is not initialized")

	// ErrUnknownActionType is returned when a queued action has no
	// registered handler. The action is dropped as terminally failed.
	ErrUnknownActionType = errors.New("no handler registered for action type")

	// ErrInvalidMarker is returned by the change feed when a client presents
	// a sync marker the hub cannot parse. The transport answers 410 Gone and
	// the client refetches without a marker.
	ErrInvalidMarker = errors.New("unrecognized sync marker")
)
