// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
)

type eventLogRepository struct {
	*DB
	logger  *logger.Logger
	builder sq.StatementBuilderType
}

// NewEventLogRepository returns the Postgres-backed [EventLog].
func NewEventLogRepository(db *DB, logger *logger.Logger) EventLog {
	return &eventLogRepository{
		DB:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (e *eventLogRepository) Append(ctx context.Context, channel string, event models.RealtimeEvent) error {
	log := logger.FromContext(ctx)

	query, args, err := e.builder.
		Insert("events").
		Columns("event_id", "channel", "type", "tenant_id", "entity_id", "payload", "ts").
		Values(event.EventID, channel, event.Type, event.TenantID, event.EntityID, []byte(event.Payload), event.Timestamp).
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "eventLogRepository.Append").
			Msg("failed to build insert for event")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, execErr := e.DB.ExecContext(ctx, query, args...)
	if execErr != nil {
		log.Err(execErr).
			Str("func", "eventLogRepository.Append").
			Str("event_id", event.EventID).
			Str("channel", channel).
			Str("pg_code", postgresError(execErr)).
			Msg("failed to execute insert for event")
		return fmt.Errorf("failed to append event (event_id=%s): %w", event.EventID, execErr)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).
			Str("func", "eventLogRepository.Append").
			Str("event_id", event.EventID).
			Msg("failed to get rows affected after insert")
		return fmt.Errorf("failed to get rows affected (event_id=%s): %w", event.EventID, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("failed to append event (event_id=%s): %w", event.EventID, ErrEventNotSaved)
	}

	return nil
}

func (e *eventLogRepository) ChangesSince(ctx context.Context, tenantID string, since time.Time, afterID string, limit int) ([]models.RealtimeEvent, error) {
	log := logger.FromContext(ctx)

	// keyset over (ts, event_id): same-timestamp events cut off by a
	// previous page are picked up by the event_id comparison
	query, args, err := e.builder.
		Select("event_id", "type", "tenant_id", "entity_id", "payload", "ts").
		From("events").
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.Or{
			sq.Gt{"ts": since},
			sq.And{sq.Eq{"ts": since}, sq.Gt{"event_id": afterID}},
		}).
		OrderBy("ts ASC", "event_id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "eventLogRepository.ChangesSince").
			Msg("failed to build select for changes")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, queryErr := e.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", "eventLogRepository.ChangesSince").
			Str("tenant_id", tenantID).
			Str("pg_code", postgresError(queryErr)).
			Msg("failed to execute query for changes")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	var events []models.RealtimeEvent

	for rows.Next() {
		var (
			event   models.RealtimeEvent
			payload []byte
		)

		scanErr := rows.Scan(
			&event.EventID,
			&event.Type,
			&event.TenantID,
			&event.EntityID,
			&payload,
			&event.Timestamp,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "eventLogRepository.ChangesSince").
				Str("tenant_id", tenantID).
				Msg("failed to scan event row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, scanErr)
		}
		event.Payload = payload

		events = append(events, event)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "eventLogRepository.ChangesSince").
			Str("tenant_id", tenantID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating event rows: %w", rowsErr)
	}

	return events, nil
}
