package repositories

import (
	"context"

	"blogdesk/app/models"
)

// PostRepository defines access to the blog API.
// Mutations return the human-readable message of the response envelope, if any.
type PostRepository interface {
	List(ctx context.Context) ([]*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, in models.PostInput) (string, error)
	Update(ctx context.Context, id string, in models.PostInput) (string, error)
	Delete(ctx context.Context, id string) (string, error)
}

// ViewStateRepository defines storage for per-browser form state
type ViewStateRepository interface {
	Load(sessionID string) (*models.ViewState, error)
	Save(state *models.ViewState) error
	BeginSubmit(sessionID string) error
	EndSubmit(sessionID string) error
	SetFlash(sessionID string, flash models.Flash) error
	GetFlash(sessionID string) (*models.Flash, error)
}
