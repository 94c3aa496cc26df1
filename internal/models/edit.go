package models

import (
	"time"

	"github.com/google/uuid"
)

// NotLocated is the offset stored for an edit whose phrase could not be found in the essay.
const NotLocated = -1

// Edit is one suggested revision of an essay. StartIndex and EndIndex are
// offsets into the normalized essay text, not the raw text.
type Edit struct {
	ID         int64     `json:"id,omitempty"`
	SessionID  uuid.UUID `json:"-"`
	Type       Category  `json:"type" validate:"required,category"`
	Phrase     string    `json:"phrase" validate:"required,max=10000"`
	Suggestion string    `json:"suggestion" validate:"max=10000"`
	Reasoning  string    `json:"reasoning" validate:"max=10000"`
	StartIndex int       `json:"startIndex"`
	EndIndex   int       `json:"endIndex"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Located reports whether the edit carries a valid located range.
func (e *Edit) Located() bool {
	return e.StartIndex >= 0 && e.StartIndex < e.EndIndex
}

// ChangeType classifies a tracked change to the essay.
type ChangeType string

const (
	ChangeTypeUserEdit ChangeType = "user edit"
	ChangeTypeNewEssay ChangeType = "new essay"
)

// UserEdit records one change the user made to the essay text between two tracking calls.
type UserEdit struct {
	ID          int64      `json:"id"`
	SessionID   uuid.UUID  `json:"-"`
	StartIndex  int        `json:"startIndex"`
	EndIndex    int        `json:"endIndex"`
	ChangeType  ChangeType `json:"change_type"`
	EditContent string     `json:"edit_content"`
	CreatedAt   time.Time  `json:"timestamp"`
}
