package sqlite_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/toolhost/internal/infra/sqlite"
)

func TestNewDB_OpenAndClose(t *testing.T) {
	t.Parallel()

	db, err := sqlite.NewDB(tempDBPath(t))
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestNewDB_WALMode(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNewDB_ForeignKeysEnabled(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	var enabled int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestNewDB_BusyTimeout(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	var timeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestNewDB_InMemory_SingleConnection(t *testing.T) {
	t.Parallel()

	db, err := sqlite.NewDB(sqlite.MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestNewDB_FileCreated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "new_db.sqlite")
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))

	db, err := sqlite.NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	_, statErr = os.Stat(path)
	assert.NoError(t, statErr)
}

func TestNewDB_InvalidDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nonexistent_dir", "db.sqlite")

	db, err := sqlite.NewDB(path)
	if err == nil {
		db.Close()
	}
	assert.ErrorContains(t, err, "does not exist")
}

func TestOpen_AppliesMigrations(t *testing.T) {
	t.Parallel()

	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	assertTableExists(t, db, "tool_invocation")
	assertTableExists(t, db, "company")
}

func mustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewDB(tempDBPath(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sqlite")
}

func assertTableExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
	require.NoError(t, err, "table %q should exist", table)
}
