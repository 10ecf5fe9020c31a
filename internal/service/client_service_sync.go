// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/adapter"
	"github.com/MKhiriev/go-flock-sync/internal/cache"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/store"
	"github.com/MKhiriev/go-flock-sync/models"
)

type syncManager struct {
	queue        store.ActionQueue
	markers      store.SyncMarkerStore
	api          adapter.APIClient
	handlers     *HandlerRegistry
	cache        *cache.Store
	retryCeiling int
	logger       *logger.Logger

	mu          sync.Mutex
	initialized bool
	syncing     bool
	online      bool
	lastSyncAt  time.Time
	failures    []models.ActionError
	statusSubs  map[int]SyncStatusHandler
	nextSub     int
}

// NewSyncManager wires the sync manager over the durable queue, the marker
// store, the API adapter and the local cache. retryCeiling bounds transient
// failures per action before it is dropped as terminally failed.
func NewSyncManager(
	storages *store.ClientStorages,
	api adapter.APIClient,
	handlers *HandlerRegistry,
	cacheStore *cache.Store,
	retryCeiling int,
	log *logger.Logger,
) SyncManager {
	if retryCeiling <= 0 {
		retryCeiling = 3
	}

	return &syncManager{
		queue:        storages.ActionQueue,
		markers:      storages.SyncMarkers,
		api:          api,
		handlers:     handlers,
		cache:        cacheStore,
		retryCeiling: retryCeiling,
		logger:       log,
		statusSubs:   make(map[int]SyncStatusHandler),
	}
}

func (s *syncManager) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	depth, err := s.queue.Count(ctx)
	if err != nil {
		return fmt.Errorf("initialize: count queued actions: %w", err)
	}

	s.logger.Info().
		Str("func", "syncManager.Initialize").
		Int("queue_depth", depth).
		Msg("sync manager initialized")
	s.notifyStatus(ctx)

	return nil
}

func (s *syncManager) EnqueueAction(ctx context.Context, actionType models.ActionType, endpoint, method string, payload json.RawMessage) (string, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return "", ErrNotInitialized
	}
	online := s.online
	s.mu.Unlock()

	action := models.QueuedAction{
		Type:           actionType,
		TargetEndpoint: endpoint,
		Method:         method,
		Payload:        payload,
		CreatedAt:      time.Now().UTC(),
		IdempotencyKey: models.IdempotencyKey(actionType, endpoint, payload),
	}

	id, err := s.queue.Enqueue(ctx, action)
	if err != nil {
		return "", fmt.Errorf("enqueue %s action: %w", actionType, err)
	}

	s.notifyStatus(ctx)

	// drain promptly instead of waiting for the periodic job
	if online {
		s.triggerAsyncFlush()
	}

	return id, nil
}

func (s *syncManager) FlushQueue(ctx context.Context) (models.SyncResult, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return models.SyncResult{}, ErrNotInitialized
	}
	if s.syncing {
		s.mu.Unlock()
		return models.SyncResult{}, ErrSyncInProgress
	}
	if !s.online {
		s.mu.Unlock()
		return models.SyncResult{}, ErrOffline
	}
	s.syncing = true
	s.mu.Unlock()
	s.notifyStatus(ctx)

	defer func() {
		now := time.Now().UTC()
		s.mu.Lock()
		s.syncing = false
		s.lastSyncAt = now
		s.mu.Unlock()
		s.notifyStatus(ctx)
	}()

	// snapshot keeps the pass strictly FIFO even while new actions arrive
	actions, err := s.queue.List(ctx)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("flush: list queued actions: %w", err)
	}

	var result models.SyncResult
	for _, action := range actions {
		result.Processed++

		dispatchErr := s.handlers.Dispatch(ctx, action)
		if dispatchErr == nil {
			if removeErr := s.queue.Remove(ctx, action.ID); removeErr != nil && !errors.Is(removeErr, store.ErrActionNotFound) {
				s.logger.Err(removeErr).
					Str("func", "syncManager.FlushQueue").
					Str("action_id", action.ID).
					Msg("submitted action could not be removed from queue")
			}
			result.Succeeded++
			continue
		}

		switch {
		case errors.Is(dispatchErr, adapter.ErrUnauthorized):
			// the session is dead; every remaining action would fail the
			// same way, and the queue must survive for after re-auth
			result.Failed++
			result.Errors = append(result.Errors, models.ActionError{
				ActionID: action.ID,
				Type:     action.Type,
				Err:      dispatchErr.Error(),
			})
			return result, fmt.Errorf("flush: %w", adapter.ErrUnauthorized)

		case errors.Is(dispatchErr, adapter.ErrServerUnavailable):
			// server-side trouble is global, stop burning retry budget on
			// the rest of the queue
			result.Failed++
			result.Errors = append(result.Errors, s.handleTransient(ctx, action, dispatchErr))
			return result, nil

		case errors.Is(dispatchErr, adapter.ErrRejected), errors.Is(dispatchErr, ErrUnknownActionType):
			// the server will never accept this action; retrying is pointless
			result.Failed++
			result.Errors = append(result.Errors, s.dropTerminal(ctx, action, dispatchErr))

		default:
			result.Failed++
			result.Errors = append(result.Errors, s.handleTransient(ctx, action, dispatchErr))
		}
	}

	return result, nil
}

// handleTransient bumps the action's retry count, dropping it as terminally
// failed once the ceiling is reached.
func (s *syncManager) handleTransient(ctx context.Context, action models.QueuedAction, cause error) models.ActionError {
	newCount := action.RetryCount + 1
	if newCount >= s.retryCeiling {
		return s.dropTerminal(ctx, action, fmt.Errorf("retry ceiling reached (%d): %w", s.retryCeiling, cause))
	}

	if err := s.queue.UpdateRetryCount(ctx, action.ID, newCount); err != nil {
		s.logger.Err(err).
			Str("func", "syncManager.handleTransient").
			Str("action_id", action.ID).
			Msg("failed to persist retry count")
	}

	s.logger.Debug().
		Str("func", "syncManager.handleTransient").
		Str("action_id", action.ID).
		Str("type", string(action.Type)).
		Int("retry_count", newCount).
		Err(cause).
		Msg("action submission failed, will retry")

	return models.ActionError{ActionID: action.ID, Type: action.Type, Err: cause.Error()}
}

// dropTerminal removes the action and records a user-visible failure.
func (s *syncManager) dropTerminal(ctx context.Context, action models.QueuedAction, cause error) models.ActionError {
	if err := s.queue.Remove(ctx, action.ID); err != nil && !errors.Is(err, store.ErrActionNotFound) {
		s.logger.Err(err).
			Str("func", "syncManager.dropTerminal").
			Str("action_id", action.ID).
			Msg("failed to remove terminally failed action")
	}

	failure := models.ActionError{
		ActionID: action.ID,
		Type:     action.Type,
		Err:      cause.Error(),
		Terminal: true,
	}

	s.mu.Lock()
	s.failures = append(s.failures, failure)
	s.mu.Unlock()

	s.logger.Warn().
		Str("func", "syncManager.dropTerminal").
		Str("action_id", action.ID).
		Str("type", string(action.Type)).
		Err(cause).
		Msg("action dropped as terminally failed")

	return failure
}

func (s *syncManager) SyncNow(ctx context.Context) (models.SyncResult, error) {
	result, err := s.FlushQueue(ctx)
	if errors.Is(err, ErrSyncInProgress) {
		// a concurrent flush is already doing the work
		return models.SyncResult{}, nil
	}

	return result, err
}

func (s *syncManager) DeltaSync(ctx context.Context, resource string) ([]models.ChangedRecord, error) {
	markerValue := ""
	marker, err := s.markers.GetMarker(ctx, resource)
	if err == nil {
		markerValue = marker.Value
	} else if !errors.Is(err, store.ErrMarkerNotFound) {
		return nil, fmt.Errorf("delta sync: load marker for %s: %w", resource, err)
	}

	delta, err := s.api.Changes(ctx, resource, markerValue)
	if errors.Is(err, adapter.ErrInvalidMarker) {
		s.logger.Info().
			Str("func", "syncManager.DeltaSync").
			Str("resource", resource).
			Msg("server rejected sync marker, falling back to full fetch")
		delta, err = s.api.Changes(ctx, resource, "")
	}
	if err != nil {
		return nil, fmt.Errorf("delta sync for %s: %w", resource, err)
	}

	for _, record := range delta.Records {
		key := record.Resource + ":" + record.EntityID
		if record.Deleted {
			s.cache.Invalidate(key)
			continue
		}
		s.cache.Set(key, record.Payload)
	}

	if delta.NextMarker != "" {
		setErr := s.markers.SetMarker(ctx, models.SyncMarker{
			Resource:  resource,
			Value:     delta.NextMarker,
			UpdatedAt: time.Now().UTC(),
		})
		if setErr != nil {
			// next sync refetches the same window; correctness is preserved
			// by idempotent cache writes
			s.logger.Err(setErr).
				Str("func", "syncManager.DeltaSync").
				Str("resource", resource).
				Msg("failed to persist sync marker")
		}
	}

	return delta.Records, nil
}

func (s *syncManager) Status(ctx context.Context) models.SyncStatus {
	depth, err := s.queue.Count(ctx)
	if err != nil {
		s.logger.Err(err).Str("func", "syncManager.Status").Msg("failed to count queued actions")
		depth = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return models.SyncStatus{
		IsOnline:    s.online,
		IsSyncing:   s.syncing,
		LastSyncAt:  s.lastSyncAt,
		QueueDepth:  depth,
		FailedCount: len(s.failures),
	}
}

func (s *syncManager) OnStatusChange(handler SyncStatusHandler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.statusSubs[id] = handler

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.statusSubs, id)
	}
}

func (s *syncManager) SetOnline(ctx context.Context, online bool) {
	s.mu.Lock()
	wasOnline := s.online
	s.online = online
	s.mu.Unlock()

	if online == wasOnline {
		return
	}

	s.logger.Info().
		Str("func", "syncManager.SetOnline").
		Bool("online", online).
		Msg("connectivity changed")
	s.notifyStatus(ctx)

	if online && !wasOnline {
		s.triggerAsyncFlush()
	}
}

func (s *syncManager) NotifyForeground(ctx context.Context) {
	s.mu.Lock()
	online := s.online
	s.mu.Unlock()

	if online {
		s.triggerAsyncFlush()
	}
}

func (s *syncManager) triggerAsyncFlush() {
	go func() {
		_, err := s.FlushQueue(context.Background())
		if err != nil && !errors.Is(err, ErrSyncInProgress) && !errors.Is(err, ErrOffline) {
			s.logger.Err(err).Str("func", "syncManager.triggerAsyncFlush").Msg("background flush failed")
		}
	}()
}

func (s *syncManager) notifyStatus(ctx context.Context) {
	status := s.Status(ctx)

	s.mu.Lock()
	handlers := make([]SyncStatusHandler, 0, len(s.statusSubs))
	for _, h := range s.statusSubs {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(status)
	}
}
