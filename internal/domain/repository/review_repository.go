package repository

import (
	"context"

	"marketplace/internal/domain/entity"
)

type ReviewRepository interface {
	// Create inserts the review and rewrites the product's rating and review
	// count in the same transaction. A missing product fails the whole write.
	Create(ctx context.Context, review *entity.Review) (*entity.ReviewSummary, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Review, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}
