package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed client/*.sql hub/*.sql
var embedMigrations embed.FS

// MigrateClient applies the client-side schema (action queue and sync
// markers) to the local SQLite database.
func MigrateClient(db *sql.DB) error {
	return migrate(db, "sqlite3", "client")
}

// MigrateHub applies the hub-side schema (event log) to the Postgres
// database.
func MigrateHub(db *sql.DB) error {
	return migrate(db, "pgx", "hub")
}

func migrate(db *sql.DB, dialect, dir string) error {
	sub, err := fs.Sub(embedMigrations, dir)
	if err != nil {
		return fmt.Errorf("migration error resolving embedded dir %s: %w", dir, err)
	}
	goose.SetBaseFS(sub)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
