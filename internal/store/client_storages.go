package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-flock-sync/internal/config"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
)

// ClientStorages groups all client-side storage repositories into a single
// value that can be passed around the service layer.
type ClientStorages struct {
	// ActionQueue is the durable FIFO of pending write actions, wrapped so
	// that a storage failure degrades it to an in-memory queue instead of
	// blocking writes.
	ActionQueue ActionQueue

	// SyncMarkers persists per-resource delta-sync cursors.
	SyncMarkers SyncMarkerStore
}

// NewClientStorages initialises the client storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.MigrateClient].
//  3. Constructs and returns a [ClientStorages] value wired to the action
//     queue and sync marker repositories.
//
// Storage failures, at open time or later, degrade the action queue to an
// in-memory FIFO with a degraded-durability warning; construction never fails
// on a broken local database. When the database opens cleanly, later marker
// errors still surface to the caller: a lost marker only costs one full
// refetch.
func NewClientStorages(cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg.DB, logger)
	if err == nil {
		if migrateErr := db.MigrateClient(); migrateErr != nil {
			err = fmt.Errorf("migration failed: %w", migrateErr)
		}
	} else {
		err = fmt.Errorf("sqlite connection error: %w", err)
	}

	if err != nil {
		logger.Warn().
			Err(err).
			Str("func", "NewClientStorages").
			Msg("local queue storage unavailable: using in-memory queue, pending actions will not survive restart")

		return &ClientStorages{
			ActionQueue: NewMemoryActionQueue(),
			SyncMarkers: NewMemorySyncMarkerStore(),
		}, nil
	}

	return &ClientStorages{
		ActionQueue: NewFallbackActionQueue(NewActionQueueRepository(db, logger), logger),
		SyncMarkers: NewSyncMarkerRepository(db, logger),
	}, nil
}
