package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/internal/domain/service"
	"marketplace/pkg/errors"
)

type gormReviewRepository struct {
	db *gorm.DB
}

func NewGormReviewRepository(db *gorm.DB) repository.ReviewRepository {
	return &gormReviewRepository{db: db}
}

func (r *gormReviewRepository) Create(ctx context.Context, review *entity.Review) (*entity.ReviewSummary, error) {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = time.Now()

	var summary entity.ReviewSummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product entity.Product
		if err := forUpdate(tx).Select("id").First(&product, "id = ?", review.ProductID).Error; err != nil {
			return err
		}

		if err := tx.Create(review).Error; err != nil {
			return err
		}

		var agg struct {
			RatingSum   int64
			ReviewTotal int64
		}
		err := tx.Model(&entity.Review{}).
			Select("COALESCE(SUM(rating), 0) AS rating_sum, COUNT(*) AS review_total").
			Where("product_id = ?", review.ProductID).
			Scan(&agg).Error
		if err != nil {
			return err
		}

		summary = entity.ReviewSummary{
			AverageRating: service.AverageRating(agg.RatingSum, agg.ReviewTotal),
			TotalCount:    int(agg.ReviewTotal),
		}

		return tx.Model(&entity.Product{}).
			Where("id = ?", review.ProductID).
			UpdateColumns(map[string]interface{}{
				"rating":       summary.AverageRating,
				"review_count": summary.TotalCount,
			}).Error
	})
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.TransactionFailed("Failed to create review", err)
	}
	return &summary, nil
}

func (r *gormReviewRepository) ListByProduct(ctx context.Context, productID string) ([]*entity.Review, error) {
	var reviews []*entity.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, errors.Internal("Failed to list reviews", err)
	}
	return reviews, nil
}

func (r *gormReviewRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Review{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, errors.Internal("Failed to count reviews", err)
	}
	return count, nil
}
