package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-flock-sync/internal/config"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
)

// Storages groups the hub-side storage repositories.
type Storages struct {
	// EventLog is the Postgres-backed record of broadcast events, replayed
	// by the delta-changes endpoint.
	EventLog EventLog
}

// NewStorages initialises the hub storage layer: connects to Postgres, runs
// pending migrations and wires the event log repository.
func NewStorages(cfg config.HubStorage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectPostgres(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.MigrateHub(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		EventLog: NewEventLogRepository(db, logger),
	}, nil
}
