package store

import (
	"context"

	"morphire/internal/models"
)

// DocumentStore persists one document per identity.
type DocumentStore interface {
	Load(ctx context.Context, identity string) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document, identity string) error
	Update(ctx context.Context, identity string, fn func(*models.Document) error) (*models.Document, error)
	Backend() string
	Close() error
}

var _ DocumentStore = (*Store)(nil)
