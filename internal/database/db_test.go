package database

import (
	"context"
	"testing"
)

func TestParseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		url         string
		wantDialect Dialect
		wantDSN     string
		wantErr     bool
	}{
		{"postgres", "postgres://u:p@localhost/db?sslmode=disable", DialectPostgres, "postgres://u:p@localhost/db?sslmode=disable", false},
		{"postgresql", "postgresql://localhost/db", DialectPostgres, "postgresql://localhost/db", false},
		{"sqlite memory", "sqlite://:memory:", DialectSQLite, ":memory:", false},
		{"sqlite path", "sqlite://data/edits.db", DialectSQLite, "data/edits.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", false},
		{"sqlite path with options", "sqlite://edits.db?mode=ro", DialectSQLite, "edits.db?mode=ro", false},
		{"file uri", "file:edits.db?cache=shared", DialectSQLite, "file:edits.db?cache=shared", false},
		{"bare path", "edits.db", DialectSQLite, "edits.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", false},
		{"empty", "", "", "", true},
		{"unsupported scheme", "mysql://localhost/db", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dialect, dsn, err := parseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if dialect != tt.wantDialect {
				t.Errorf("parseURL(%q) dialect = %q, want %q", tt.url, dialect, tt.wantDialect)
			}
			if dsn != tt.wantDSN {
				t.Errorf("parseURL(%q) dsn = %q, want %q", tt.url, dsn, tt.wantDSN)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	t.Parallel()

	query := "SELECT * FROM edits WHERE session_id = ? AND id > ?"
	pg := &DB{dialect: DialectPostgres}
	if got, want := pg.Rebind(query), "SELECT * FROM edits WHERE session_id = $1 AND id > $2"; got != want {
		t.Errorf("Rebind() = %q, want %q", got, want)
	}
	lite := &DB{dialect: DialectSQLite}
	if got := lite.Rebind(query); got != query {
		t.Errorf("Rebind() on sqlite = %q, want unchanged", got)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Errorf("second Migrate returned error: %v", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck returned error: %v", err)
	}
	if db.Dialect() != DialectSQLite {
		t.Errorf("Expected sqlite dialect, got %s", db.Dialect())
	}
}
