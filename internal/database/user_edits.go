package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/rewrite/internal/models"
)

// UserEditRepository handles tracked user edit database operations
type UserEditRepository struct {
	db *DB
}

// NewUserEditRepository creates a new user edit repository
func NewUserEditRepository(db *DB) *UserEditRepository {
	return &UserEditRepository{db: db}
}

// Create records a tracked change and sets its ID and timestamp.
func (r *UserEditRepository) Create(ctx context.Context, ue *models.UserEdit) error {
	if ue.CreatedAt.IsZero() {
		ue.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_edits (session_id, start_index, end_index, change_type, edit_content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, ue.SessionID, ue.StartIndex, ue.EndIndex, string(ue.ChangeType), ue.EditContent, ue.CreatedAt).Scan(&ue.ID)
	if err != nil {
		return fmt.Errorf("failed to create user edit: %w", err)
	}
	return nil
}

// List returns a session's tracked changes, oldest first.
func (r *UserEditRepository) List(ctx context.Context, sessionID uuid.UUID) ([]models.UserEdit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, start_index, end_index, change_type, edit_content, created_at
		FROM user_edits
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user edits: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []models.UserEdit{}
	for rows.Next() {
		var ue models.UserEdit
		var changeType string
		if err := rows.Scan(&ue.ID, &ue.SessionID, &ue.StartIndex, &ue.EndIndex, &changeType, &ue.EditContent, &ue.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user edit: %w", err)
		}
		ue.ChangeType = models.ChangeType(changeType)
		out = append(out, ue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user edits: %w", err)
	}
	return out, nil
}

// Clear deletes a session's tracked changes.
func (r *UserEditRepository) Clear(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_edits WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear user edits: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
