package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryActionQueue_FIFO(t *testing.T) {
	queue := NewMemoryActionQueue()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := queue.Enqueue(ctx, testAction(fmt.Sprintf("act-%d", i)))
		require.NoError(t, err)
	}

	actions, err := queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 5)
	for i, action := range actions {
		assert.Equal(t, fmt.Sprintf("act-%d", i), action.ID)
	}

	// removing the middle action preserves the order of the rest
	require.NoError(t, queue.Remove(ctx, "act-2"))
	actions, err = queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 4)
	assert.Equal(t, []string{"act-0", "act-1", "act-3", "act-4"},
		[]string{actions[0].ID, actions[1].ID, actions[2].ID, actions[3].ID})
}

func TestMemoryActionQueue_DomainErrors(t *testing.T) {
	queue := NewMemoryActionQueue()
	ctx := context.Background()

	_, err := queue.Enqueue(ctx, testAction("act-1"))
	require.NoError(t, err)

	_, err = queue.Enqueue(ctx, testAction("act-1"))
	assert.ErrorIs(t, err, ErrDuplicateAction)

	assert.ErrorIs(t, queue.Remove(ctx, "missing"), ErrActionNotFound)
	assert.ErrorIs(t, queue.UpdateRetryCount(ctx, "missing", 1), ErrActionNotFound)
}

func TestMemoryActionQueue_UpdateRetryCount(t *testing.T) {
	queue := NewMemoryActionQueue()
	ctx := context.Background()

	_, err := queue.Enqueue(ctx, testAction("act-1"))
	require.NoError(t, err)

	require.NoError(t, queue.UpdateRetryCount(ctx, "act-1", 3))

	actions, err := queue.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, actions[0].RetryCount)
}

// failingQueue simulates a durable queue whose storage broke mid-flight.
type failingQueue struct {
	actions []models.QueuedAction
	broken  bool
}

func (q *failingQueue) Enqueue(_ context.Context, action models.QueuedAction) (string, error) {
	if q.broken {
		return "", errors.New("disk I/O error")
	}
	q.actions = append(q.actions, action)
	return action.ID, nil
}

func (q *failingQueue) List(context.Context) ([]models.QueuedAction, error) {
	// List keeps working during degradation so pending actions carry over
	return q.actions, nil
}

func (q *failingQueue) Remove(_ context.Context, actionID string) error {
	if q.broken {
		return errors.New("disk I/O error")
	}
	return fmt.Errorf("remove %s: %w", actionID, ErrActionNotFound)
}

func (q *failingQueue) UpdateRetryCount(_ context.Context, _ string, _ int) error {
	if q.broken {
		return errors.New("disk I/O error")
	}
	return nil
}

func (q *failingQueue) Count(context.Context) (int, error) {
	if q.broken {
		return 0, errors.New("disk I/O error")
	}
	return len(q.actions), nil
}

func TestFallbackActionQueue_DegradesOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	primary := &failingQueue{}
	queue := NewFallbackActionQueue(primary, logger.Nop())

	// healthy path goes to the durable queue
	_, err := queue.Enqueue(ctx, testAction("act-1"))
	require.NoError(t, err)
	require.Len(t, primary.actions, 1)

	// storage breaks: the next write degrades to memory and still succeeds
	primary.broken = true
	id, err := queue.Enqueue(ctx, testAction("act-2"))
	require.NoError(t, err)
	assert.Equal(t, "act-2", id)

	// the pending durable action carried over into the memory queue
	actions, err := queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "act-1", actions[0].ID)
	assert.Equal(t, "act-2", actions[1].ID)

	// once degraded the primary is never consulted again
	primary.broken = false
	count, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFallbackActionQueue_DomainErrorsDoNotDegrade(t *testing.T) {
	ctx := context.Background()
	primary := &failingQueue{}
	queue := NewFallbackActionQueue(primary, logger.Nop())

	// not-found is a domain answer, not a storage failure
	err := queue.Remove(ctx, "missing")
	assert.ErrorIs(t, err, ErrActionNotFound)

	// the queue must still be on the durable path
	_, err = queue.Enqueue(ctx, testAction("act-1"))
	require.NoError(t, err)
	assert.Len(t, primary.actions, 1)
}
