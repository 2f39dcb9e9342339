package repository

import (
	"context"

	"marketplace/internal/domain/entity"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Category, error)
	// List is sorted by name.
	List(ctx context.Context) ([]*entity.Category, error)
}
