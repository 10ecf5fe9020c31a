// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/utils"
	"github.com/MKhiriev/go-flock-sync/models"
	"github.com/mattn/go-sqlite3"
)

type actionQueueRepository struct {
	*DB
	logger *logger.Logger
	uuid   *utils.UUIDGenerator
}

// NewActionQueueRepository returns the SQLite-backed [ActionQueue]. Insertion
// order is preserved by the table's autoincrement rowid, so List always
// replays actions oldest first.
func NewActionQueueRepository(db *DB, logger *logger.Logger) ActionQueue {
	return &actionQueueRepository{
		DB:     db,
		logger: logger,
		uuid:   utils.NewUUIDGenerator(),
	}
}

func (a *actionQueueRepository) Enqueue(ctx context.Context, action models.QueuedAction) (string, error) {
	log := logger.FromContext(ctx)

	if action.ID == "" {
		action.ID = a.uuid.Generate()
	}

	_, err := a.DB.ExecContext(ctx, enqueueAction,
		action.ID,
		action.Type,
		action.TargetEndpoint,
		action.Method,
		[]byte(action.Payload),
		action.CreatedAt,
		action.RetryCount,
		action.IdempotencyKey,
	)
	if err != nil {
		if sqliteError(err) == sqlite3.ErrConstraintUnique {
			log.Warn().
				Str("func", "actionQueueRepository.Enqueue").
				Str("action_id", action.ID).
				Msg("duplicate action id on enqueue")
			return "", fmt.Errorf("failed to enqueue action (id=%s): %w", action.ID, ErrDuplicateAction)
		}
		log.Err(err).
			Str("func", "actionQueueRepository.Enqueue").
			Str("action_id", action.ID).
			Str("type", string(action.Type)).
			Msg("failed to execute insert for queued action")
		return "", fmt.Errorf("failed to enqueue action (id=%s): %w", action.ID, err)
	}

	return action.ID, nil
}

func (a *actionQueueRepository) List(ctx context.Context) ([]models.QueuedAction, error) {
	log := logger.FromContext(ctx)

	rows, err := a.DB.QueryContext(ctx, listActions)
	if err != nil {
		log.Err(err).
			Str("func", "actionQueueRepository.List").
			Msg("failed to execute query for listing queued actions")
		return nil, fmt.Errorf("failed to query queued actions: %w", err)
	}
	defer rows.Close()

	var actions []models.QueuedAction

	for rows.Next() {
		var (
			action  models.QueuedAction
			payload []byte
		)

		scanErr := rows.Scan(
			&action.ID,
			&action.Type,
			&action.TargetEndpoint,
			&action.Method,
			&payload,
			&action.CreatedAt,
			&action.RetryCount,
			&action.IdempotencyKey,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "actionQueueRepository.List").
				Msg("failed to scan queued action row")
			return nil, fmt.Errorf("failed to scan queued action row: %w", scanErr)
		}
		action.Payload = payload

		actions = append(actions, action)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "actionQueueRepository.List").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating queued action rows: %w", rowsErr)
	}

	return actions, nil
}

func (a *actionQueueRepository) Remove(ctx context.Context, actionID string) error {
	log := logger.FromContext(ctx)

	result, err := a.DB.ExecContext(ctx, removeAction, actionID)
	if err != nil {
		log.Err(err).
			Str("func", "actionQueueRepository.Remove").
			Str("action_id", actionID).
			Msg("failed to execute delete for queued action")
		return fmt.Errorf("failed to remove action (id=%s): %w", actionID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).
			Str("func", "actionQueueRepository.Remove").
			Str("action_id", actionID).
			Msg("failed to get rows affected after delete")
		return fmt.Errorf("failed to get rows affected (id=%s): %w", actionID, err)
	}

	if rowsAffected == 0 {
		log.Warn().
			Str("func", "actionQueueRepository.Remove").
			Str("action_id", actionID).
			Msg("no rows affected during delete: action not found")
		return fmt.Errorf("failed to remove action (id=%s): %w", actionID, ErrActionNotFound)
	}

	return nil
}

func (a *actionQueueRepository) UpdateRetryCount(ctx context.Context, actionID string, retryCount int) error {
	log := logger.FromContext(ctx)

	result, err := a.DB.ExecContext(ctx, updateActionRetryCount, retryCount, actionID)
	if err != nil {
		log.Err(err).
			Str("func", "actionQueueRepository.UpdateRetryCount").
			Str("action_id", actionID).
			Int("retry_count", retryCount).
			Msg("failed to execute update for retry count")
		return fmt.Errorf("failed to update retry count (id=%s): %w", actionID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).
			Str("func", "actionQueueRepository.UpdateRetryCount").
			Str("action_id", actionID).
			Msg("failed to get rows affected after update")
		return fmt.Errorf("failed to get rows affected (id=%s): %w", actionID, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("failed to update retry count (id=%s): %w", actionID, ErrActionNotFound)
	}

	return nil
}

func (a *actionQueueRepository) Count(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	var count int
	row := a.DB.QueryRowContext(ctx, countActions)
	if err := row.Scan(&count); err != nil {
		log.Err(err).
			Str("func", "actionQueueRepository.Count").
			Msg("failed to scan queue depth")
		return 0, fmt.Errorf("failed to count queued actions: %w", err)
	}

	return count, nil
}
