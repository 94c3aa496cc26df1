package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/benvon/rewrite/internal/models"
)

// EditStore defines the edit operations handlers and services depend on.
type EditStore interface {
	StoreMany(ctx context.Context, sessionID uuid.UUID, edits []models.Edit) ([]models.Edit, error)
	List(ctx context.Context, sessionID uuid.UUID) ([]models.Edit, error)
	UpdateCompletion(ctx context.Context, sessionID uuid.UUID, id int64, completed bool) error
	Clear(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

// UserEditStore defines the tracked user edit operations.
type UserEditStore interface {
	Create(ctx context.Context, ue *models.UserEdit) error
	List(ctx context.Context, sessionID uuid.UUID) ([]models.UserEdit, error)
	Clear(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

// CorsConfigStore defines CORS configuration access.
type CorsConfigStore interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
	Set(ctx context.Context, c *models.CorsConfig) error
	Delete(ctx context.Context) error
}

// RatelimitConfigStore defines rate limit configuration access.
type RatelimitConfigStore interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
	Delete(ctx context.Context) error
}

// Ensure concrete types implement the interfaces
var (
	_ EditStore            = (*EditRepository)(nil)
	_ UserEditStore        = (*UserEditRepository)(nil)
	_ CorsConfigStore      = (*CorsConfigRepository)(nil)
	_ RatelimitConfigStore = (*RatelimitConfigRepository)(nil)
)
