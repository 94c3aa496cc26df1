package tracking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/rewrite/internal/models"
)

// UserEditRecorder persists tracked changes.
type UserEditRecorder interface {
	Create(ctx context.Context, ue *models.UserEdit) error
}

// Tracker diffs each submitted essay against the previous submission of the same session.
type Tracker struct {
	texts  TextStore
	edits  UserEditRecorder
	logger *zap.Logger
}

// NewTracker creates a tracker.
func NewTracker(texts TextStore, edits UserEditRecorder, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{texts: texts, edits: edits, logger: logger}
}

// Track records the change from the session's last text to text. It returns
// nil when the text is unchanged.
func (t *Tracker) Track(ctx context.Context, sessionID uuid.UUID, text string) (*models.UserEdit, error) {
	key := sessionID.String()
	last, err := t.texts.Last(ctx, key)
	if err != nil {
		return nil, err
	}
	if last == text {
		return nil, nil
	}

	change := Diff(last, text)
	ue := &models.UserEdit{
		SessionID:   sessionID,
		StartIndex:  change.Start,
		EndIndex:    change.End,
		ChangeType:  Classify(last, text),
		EditContent: change.Content(),
	}
	if err := t.edits.Create(ctx, ue); err != nil {
		return nil, fmt.Errorf("failed to record user edit: %w", err)
	}
	if err := t.texts.Save(ctx, key, text); err != nil {
		return nil, err
	}

	t.logger.Debug("user_edit_tracked",
		zap.String("session_id", key),
		zap.String("change_type", string(ue.ChangeType)),
		zap.Int("start_index", ue.StartIndex),
		zap.Int("end_index", ue.EndIndex),
	)
	return ue, nil
}

// Reset forgets the session's last text.
func (t *Tracker) Reset(ctx context.Context, sessionID uuid.UUID) error {
	return t.texts.Delete(ctx, sessionID.String())
}
