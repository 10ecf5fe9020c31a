package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func TestMigrateClient(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "client.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateClient(db))

	// the queue and marker tables must exist after migration
	for _, table := range []string{"actions", "sync_markers"} {
		var name string
		err = db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		require.NoError(t, err, "expected table %s to exist", table)
		require.Equal(t, table, name)
	}
}

func TestMigrateClient_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "client.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateClient(db))
	require.NoError(t, MigrateClient(db))
}
