// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/utils"
	"github.com/MKhiriev/go-flock-sync/models"
)

// memoryActionQueue is the non-durable [ActionQueue] used when the local
// database is unavailable. Contents are lost on process exit.
type memoryActionQueue struct {
	mu      sync.Mutex
	actions []models.QueuedAction
	uuid    *utils.UUIDGenerator
}

// NewMemoryActionQueue returns an in-memory FIFO [ActionQueue].
func NewMemoryActionQueue() ActionQueue {
	return &memoryActionQueue{
		uuid: utils.NewUUIDGenerator(),
	}
}

func (m *memoryActionQueue) Enqueue(_ context.Context, action models.QueuedAction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if action.ID == "" {
		action.ID = m.uuid.Generate()
	}

	for _, existing := range m.actions {
		if existing.ID == action.ID {
			return "", fmt.Errorf("failed to enqueue action (id=%s): %w", action.ID, ErrDuplicateAction)
		}
	}

	m.actions = append(m.actions, action)

	return action.ID, nil
}

func (m *memoryActionQueue) List(_ context.Context) ([]models.QueuedAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// snapshot so callers can range while Enqueue keeps appending
	actions := make([]models.QueuedAction, len(m.actions))
	copy(actions, m.actions)

	return actions, nil
}

func (m *memoryActionQueue) Remove(_ context.Context, actionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, action := range m.actions {
		if action.ID == actionID {
			m.actions = append(m.actions[:i], m.actions[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("failed to remove action (id=%s): %w", actionID, ErrActionNotFound)
}

func (m *memoryActionQueue) UpdateRetryCount(_ context.Context, actionID string, retryCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.actions {
		if m.actions[i].ID == actionID {
			m.actions[i].RetryCount = retryCount
			return nil
		}
	}

	return fmt.Errorf("failed to update retry count (id=%s): %w", actionID, ErrActionNotFound)
}

func (m *memoryActionQueue) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.actions), nil
}

// memorySyncMarkerStore is the non-durable [SyncMarkerStore] used when the
// local database is unavailable. A lost marker only costs one full refetch.
type memorySyncMarkerStore struct {
	mu      sync.Mutex
	markers map[string]models.SyncMarker
}

// NewMemorySyncMarkerStore returns an in-memory [SyncMarkerStore].
func NewMemorySyncMarkerStore() SyncMarkerStore {
	return &memorySyncMarkerStore{
		markers: make(map[string]models.SyncMarker),
	}
}

func (m *memorySyncMarkerStore) GetMarker(_ context.Context, resource string) (models.SyncMarker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	marker, ok := m.markers[resource]
	if !ok {
		return models.SyncMarker{}, fmt.Errorf("no marker for resource %q: %w", resource, ErrMarkerNotFound)
	}

	return marker, nil
}

func (m *memorySyncMarkerStore) SetMarker(_ context.Context, marker models.SyncMarker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.markers[marker.Resource] = marker

	return nil
}

// fallbackActionQueue wraps a durable queue and degrades to an in-memory one
// when the durable queue reports a storage failure. The switch is one-way for
// the lifetime of the process: once degraded, queued actions no longer
// survive restart, which is logged loudly exactly once.
type fallbackActionQueue struct {
	primary  ActionQueue
	memory   ActionQueue
	logger   *logger.Logger
	mu       sync.Mutex
	degraded bool
}

// NewFallbackActionQueue wraps primary with an in-memory degradation path.
func NewFallbackActionQueue(primary ActionQueue, logger *logger.Logger) ActionQueue {
	return &fallbackActionQueue{
		primary: primary,
		memory:  NewMemoryActionQueue(),
		logger:  logger,
	}
}

func (f *fallbackActionQueue) active() ActionQueue {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.degraded {
		return f.memory
	}
	return f.primary
}

// degrade switches to the memory queue, carrying over whatever the durable
// queue can still produce. Errors from the dying primary are ignored: the
// memory queue starts from the best snapshot available.
func (f *fallbackActionQueue) degrade(ctx context.Context, cause error) ActionQueue {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.degraded {
		return f.memory
	}
	f.degraded = true

	f.logger.Warn().
		Err(cause).
		Str("func", "fallbackActionQueue.degrade").
		Msg("local queue storage failed: switching to in-memory queue, pending actions will not survive restart")

	if actions, err := f.primary.List(ctx); err == nil {
		for _, action := range actions {
			_, _ = f.memory.Enqueue(ctx, action)
		}
	}

	return f.memory
}

func (f *fallbackActionQueue) Enqueue(ctx context.Context, action models.QueuedAction) (string, error) {
	id, err := f.active().Enqueue(ctx, action)
	if err != nil && !isQueueDomainError(err) {
		return f.degrade(ctx, err).Enqueue(ctx, action)
	}

	return id, err
}

func (f *fallbackActionQueue) List(ctx context.Context) ([]models.QueuedAction, error) {
	actions, err := f.active().List(ctx)
	if err != nil {
		return f.degrade(ctx, err).List(ctx)
	}

	return actions, nil
}

func (f *fallbackActionQueue) Remove(ctx context.Context, actionID string) error {
	err := f.active().Remove(ctx, actionID)
	if err != nil && !isQueueDomainError(err) {
		return f.degrade(ctx, err).Remove(ctx, actionID)
	}

	return err
}

func (f *fallbackActionQueue) UpdateRetryCount(ctx context.Context, actionID string, retryCount int) error {
	err := f.active().UpdateRetryCount(ctx, actionID, retryCount)
	if err != nil && !isQueueDomainError(err) {
		return f.degrade(ctx, err).UpdateRetryCount(ctx, actionID, retryCount)
	}

	return err
}

func (f *fallbackActionQueue) Count(ctx context.Context) (int, error) {
	count, err := f.active().Count(ctx)
	if err != nil {
		return f.degrade(ctx, err).Count(ctx)
	}

	return count, nil
}
