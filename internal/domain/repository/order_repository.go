package repository

import (
	"context"

	"marketplace/internal/domain/entity"
)

type OrderRepository interface {
	// CreateWithItems writes the order and its items in one transaction. When the
	// order starts out completed, every referenced product's sales count is
	// incremented in the same transaction. Nothing is visible on failure.
	// A repeated idempotency key for the same user is reported as CONFLICT.
	CreateWithItems(ctx context.Context, order *entity.Order, items []entity.OrderItem) error
	// UpdateStatus applies a partial update in one transaction. Sales counts are
	// incremented only when the stored status moves into completed.
	UpdateStatus(ctx context.Context, id string, update entity.OrderStatusUpdate) (*entity.Order, error)
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*entity.Order, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Order, int64, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}
