package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "warehouse.db")

	db, err := Open(context.Background(), Config{DSN: dsn})
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.NewRaw("PRAGMA journal_mode").Scan(context.Background(), &mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenBadPostgresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverPostgres, DSN: "postgres://%zz"})
	assert.Error(t, err)
}
