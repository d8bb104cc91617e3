package migrations

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sqlx.DB, name string) bool {
	t.Helper()

	var count int
	require.NoError(t, db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name))
	return count == 1
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	require.NoError(t, Run(ctx, "up", db))
	version, err := Version(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.True(t, tableExists(t, db, "sections"))
	assert.True(t, tableExists(t, db, "students"))

	// up again is a no-op
	require.NoError(t, Run(ctx, "up", db))

	require.NoError(t, Run(ctx, "down", db))
	version, err = Version(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.True(t, tableExists(t, db, "sections"))
	assert.False(t, tableExists(t, db, "students"))

	require.NoError(t, Run(ctx, "up-to", db, "2"))
	require.NoError(t, Run(ctx, "redo", db))
	require.NoError(t, Run(ctx, "status", db))
	assert.True(t, tableExists(t, db, "students"))

	require.NoError(t, Run(ctx, "down-to", db, "0"))
	assert.False(t, tableExists(t, db, "sections"))
}

func TestRun_unknownCommand(t *testing.T) {
	err := Run(context.Background(), "lol", openDB(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such command")
}
