package usecase

import (
	"context"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
)

type ReviewUseCase struct {
	reviewRepo repository.ReviewRepository
}

func NewReviewUseCase(reviewRepo repository.ReviewRepository) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo: reviewRepo,
	}
}

type CreateReviewInput struct {
	Rating  int
	Comment string
}

type ReviewResult struct {
	Review  *entity.Review        `json:"review"`
	Summary *entity.ReviewSummary `json:"summary"`
}

// Create fails with NOT_FOUND when the product is missing; nothing is written then.
func (uc *ReviewUseCase) Create(ctx context.Context, userID, productID string, input CreateReviewInput) (*ReviewResult, error) {
	review := &entity.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}

	summary, err := uc.reviewRepo.Create(ctx, review)
	if err != nil {
		return nil, err
	}

	return &ReviewResult{Review: review, Summary: summary}, nil
}

func (uc *ReviewUseCase) ListByProduct(ctx context.Context, productID string) ([]*entity.Review, error) {
	return uc.reviewRepo.ListByProduct(ctx, productID)
}
