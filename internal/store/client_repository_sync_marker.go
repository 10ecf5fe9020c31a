// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
)

type syncMarkerRepository struct {
	*DB
	logger *logger.Logger
}

// NewSyncMarkerRepository returns the SQLite-backed [SyncMarkerStore].
func NewSyncMarkerRepository(db *DB, logger *logger.Logger) SyncMarkerStore {
	return &syncMarkerRepository{
		DB:     db,
		logger: logger,
	}
}

func (s *syncMarkerRepository) GetMarker(ctx context.Context, resource string) (models.SyncMarker, error) {
	log := logger.FromContext(ctx)

	var marker models.SyncMarker
	row := s.DB.QueryRowContext(ctx, getSyncMarker, resource)

	scanErr := row.Scan(
		&marker.Resource,
		&marker.Value,
		&marker.UpdatedAt,
	)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return models.SyncMarker{}, fmt.Errorf("no marker for resource %s: %w", resource, ErrMarkerNotFound)
		}
		log.Err(scanErr).
			Str("func", "syncMarkerRepository.GetMarker").
			Str("resource", resource).
			Msg("failed to scan sync marker row")
		return models.SyncMarker{}, fmt.Errorf("failed to scan sync marker row: %w", scanErr)
	}

	return marker, nil
}

func (s *syncMarkerRepository) SetMarker(ctx context.Context, marker models.SyncMarker) error {
	log := logger.FromContext(ctx)

	_, err := s.DB.ExecContext(ctx, upsertSyncMarker,
		marker.Resource,
		marker.Value,
		marker.UpdatedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "syncMarkerRepository.SetMarker").
			Str("resource", marker.Resource).
			Msg("failed to execute upsert for sync marker")
		return fmt.Errorf("failed to set sync marker (resource=%s): %w", marker.Resource, err)
	}

	return nil
}
