// Package testdb provides databases for tests: a private in-memory SQLite
// database per test, and a shared PostgreSQL container for integration runs.
package testdb

import (
	"context"
	"testing"

	"student-records/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// NewSQLite opens an in-memory database, creates the tables of models and
// closes the database when the test ends.
func NewSQLite(t *testing.T, models ...interface{}) *bun.DB {
	t.Helper()

	ctx := context.Background()
	database, err := db.NewSQLite(ctx, ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		database.Close()
	})

	require.NoError(t, db.RunMigrations(ctx, database, models...))
	return database
}
