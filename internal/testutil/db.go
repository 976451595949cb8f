// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/database"
	"github.com/mkoziy/workforce/warehouse/internal/migrations"
)

// NewDB opens a migrated SQLite database in a per-test temp directory.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "warehouse.db")
	db, err := database.Open(context.Background(), database.Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.RunMigrations(context.Background(), db, Logger()))
	return db
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
