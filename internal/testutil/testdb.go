// Package testutil holds shared test helpers.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/avlasenko/taxikit/internal/store"
)

// NewTestDB opens an in-memory cache database with migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
