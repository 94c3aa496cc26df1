package database

import (
	"context"
	"testing"
)

// newTestDB opens a migrated in-memory SQLite database closed at test end.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New("sqlite://:memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}
