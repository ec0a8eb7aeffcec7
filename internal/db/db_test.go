package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	dbx, err := Connect("sqlite", ":memory:")
	require.NoError(t, err)
	defer dbx.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, dbx))
	require.NoError(t, Migrate(ctx, dbx))

	var version int
	require.NoError(t, dbx.Get(&version, `SELECT MAX(version) FROM schema_version`))
	assert.Equal(t, len(migrations), version)

	for _, table := range []string{"users", "tasks", "notifications", "analytics_events"} {
		var n int
		err := dbx.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestColumnTypes(t *testing.T) {
	assert.Equal(t, "TIMESTAMPTZ JSONB", columnTypes("postgres").Replace("{{ts}} {{json}}"))
	assert.Equal(t, "TIMESTAMP TEXT", columnTypes("sqlite").Replace("{{ts}} {{json}}"))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN(":memory:"))
	assert.Equal(t, "file:app.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:app.db?mode=rwc"))
	assert.Equal(t, "app.db?_pragma=busy_timeout(100)&_pragma=foreign_keys(1)", sqliteDSN("app.db?_pragma=busy_timeout(100)"))
}

func TestSQLitePragmasApplyToEveryConnection(t *testing.T) {
	dbx, err := Connect("sqlite", filepath.Join(t.TempDir(), "taskflow.db"))
	require.NoError(t, err)
	defer dbx.Close()

	// a fresh connection must come up with the same pragmas
	dbx.SetMaxIdleConns(0)

	for i := 0; i < 2; i++ {
		var fk, busy int
		require.NoError(t, dbx.Get(&fk, `PRAGMA foreign_keys`))
		require.NoError(t, dbx.Get(&busy, `PRAGMA busy_timeout`))
		assert.Equal(t, 1, fk)
		assert.Equal(t, 5000, busy)
	}
}
