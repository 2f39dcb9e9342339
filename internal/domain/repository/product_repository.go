package repository

import (
	"context"

	"marketplace/internal/domain/entity"
)

type ProductFilter struct {
	Status     string
	CategoryID string
	Type       string
	SellerID   string
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	// Update writes only the seller-editable fields. Status and the derived
	// counters (rating, review count, sales count) are never touched.
	Update(ctx context.Context, product *entity.Product) error
	SetStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	// List is newest first.
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, int64, error)
	CountBySeller(ctx context.Context, sellerID string) (int64, error)
}
