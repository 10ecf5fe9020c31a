package store

import (
	"database/sql"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/migrations"
)

type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// MigrateClient applies the SQLite schema for the local action queue and
// sync markers.
func (db *DB) MigrateClient() error {
	return migrations.MigrateClient(db.DB)
}

// MigrateHub applies the PostgreSQL schema for the hub event log.
func (db *DB) MigrateHub() error {
	return migrations.MigrateHub(db.DB)
}
