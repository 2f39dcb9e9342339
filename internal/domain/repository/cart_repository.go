package repository

import (
	"context"

	"marketplace/internal/domain/entity"
)

type CartRepository interface {
	// Add returns the existing row when the pair is already staged; created reports which case happened.
	Add(ctx context.Context, userID, productID string) (item *entity.CartItem, created bool, err error)
	Remove(ctx context.Context, userID, productID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.CartItem, error)
	Clear(ctx context.Context, userID string) error
}
