package database

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS edits (
		id BIGSERIAL PRIMARY KEY,
		session_id UUID NOT NULL,
		type TEXT NOT NULL,
		phrase TEXT NOT NULL,
		suggestion TEXT NOT NULL DEFAULT '',
		reasoning TEXT NOT NULL DEFAULT '',
		start_index INTEGER NOT NULL,
		end_index INTEGER NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_edits_located ON edits (session_id, type, start_index, end_index) WHERE start_index >= 0`,
	`CREATE INDEX IF NOT EXISTS idx_edits_session ON edits (session_id, id)`,
	`CREATE TABLE IF NOT EXISTS user_edits (
		id BIGSERIAL PRIMARY KEY,
		session_id UUID NOT NULL,
		start_index INTEGER NOT NULL,
		end_index INTEGER NOT NULL,
		change_type TEXT NOT NULL,
		edit_content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_edits_session ON user_edits (session_id, id)`,
	`CREATE TABLE IF NOT EXISTS cors_config (
		config_key TEXT PRIMARY KEY,
		allowed_origins TEXT NOT NULL,
		allow_credentials BOOLEAN NOT NULL DEFAULT TRUE,
		max_age INTEGER NOT NULL DEFAULT 86400,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ratelimit_config (
		config_key TEXT PRIMARY KEY,
		rate TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS edits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		type TEXT NOT NULL,
		phrase TEXT NOT NULL,
		suggestion TEXT NOT NULL DEFAULT '',
		reasoning TEXT NOT NULL DEFAULT '',
		start_index INTEGER NOT NULL,
		end_index INTEGER NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_edits_located ON edits (session_id, type, start_index, end_index) WHERE start_index >= 0`,
	`CREATE INDEX IF NOT EXISTS idx_edits_session ON edits (session_id, id)`,
	`CREATE TABLE IF NOT EXISTS user_edits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		start_index INTEGER NOT NULL,
		end_index INTEGER NOT NULL,
		change_type TEXT NOT NULL,
		edit_content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_edits_session ON user_edits (session_id, id)`,
	`CREATE TABLE IF NOT EXISTS cors_config (
		config_key TEXT PRIMARY KEY,
		allowed_origins TEXT NOT NULL,
		allow_credentials BOOLEAN NOT NULL DEFAULT 1,
		max_age INTEGER NOT NULL DEFAULT 86400,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ratelimit_config (
		config_key TEXT PRIMARY KEY,
		rate TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}

// Migrate creates any missing tables and indexes.
func (db *DB) Migrate(ctx context.Context) error {
	statements := sqliteSchema
	if db.dialect == DialectPostgres {
		statements = postgresSchema
	}
	for _, stmt := range statements {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}
