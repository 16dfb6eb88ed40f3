package db

import (
	"database/sql"
	"testing"
)

// NewTestDB opens a fresh in-memory SQLite database with the schema
// applied and closes it when the test finishes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := EnsureSchema(sqlDB); err != nil {
		t.Fatalf("creating test database schema: %v", err)
	}

	return sqlDB
}
