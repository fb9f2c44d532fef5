package repository

import (
	"context"

	"entryblog/internal/domain"
)

// EntryRepository exposes persistence operations for blog entries.
// List returns entries ordered newest first, ties in insertion order.
type EntryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, entry *domain.Entry) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Entry, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, offset, limit int) ([]domain.Entry, error)
}
