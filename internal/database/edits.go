package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/rewrite/internal/models"
)

// ErrEditNotFound is returned when an edit does not exist in the caller's session.
var ErrEditNotFound = errors.New("edit not found")

// EditRepository handles edit database operations
type EditRepository struct {
	db *DB
}

// NewEditRepository creates a new edit repository
func NewEditRepository(db *DB) *EditRepository {
	return &EditRepository{db: db}
}

// StoreMany inserts edits for a session in one transaction. Located edits
// that duplicate an existing (type, start, end) triple are skipped; unlocated
// edits are always kept. The stored edits are returned with their IDs set.
func (r *EditRepository) StoreMany(ctx context.Context, sessionID uuid.UUID, edits []models.Edit) ([]models.Edit, error) {
	if len(edits) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := r.db.Rebind(`
		INSERT INTO edits (session_id, type, phrase, suggestion, reasoning, start_index, end_index, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, type, start_index, end_index) WHERE start_index >= 0 DO NOTHING
		RETURNING id
	`)

	now := time.Now().UTC()
	stored := make([]models.Edit, 0, len(edits))
	for _, e := range edits {
		e.SessionID = sessionID
		e.CreatedAt = now
		err := tx.QueryRowContext(ctx, query,
			sessionID,
			string(e.Type),
			e.Phrase,
			e.Suggestion,
			e.Reasoning,
			e.StartIndex,
			e.EndIndex,
			e.Completed,
			now,
		).Scan(&e.ID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert edit: %w", err)
		}
		stored = append(stored, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit edits: %w", err)
	}
	return stored, nil
}

// List returns a session's edits in arrival order.
func (r *EditRepository) List(ctx context.Context, sessionID uuid.UUID) ([]models.Edit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, type, phrase, suggestion, reasoning, start_index, end_index, completed, created_at
		FROM edits
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	edits := []models.Edit{}
	for rows.Next() {
		var e models.Edit
		var category string
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&category,
			&e.Phrase,
			&e.Suggestion,
			&e.Reasoning,
			&e.StartIndex,
			&e.EndIndex,
			&e.Completed,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan edit: %w", err)
		}
		e.Type = models.Category(category)
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edits: %w", err)
	}
	return edits, nil
}

// UpdateCompletion sets the completed flag of one edit.
func (r *EditRepository) UpdateCompletion(ctx context.Context, sessionID uuid.UUID, id int64, completed bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE edits SET completed = ? WHERE id = ? AND session_id = ?
	`, completed, id, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update edit completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrEditNotFound
	}
	return nil
}

// Clear deletes every edit of a session and returns how many were removed.
func (r *EditRepository) Clear(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM edits WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear edits: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
