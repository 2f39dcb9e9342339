package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/internal/domain/service"
	"marketplace/pkg/errors"
)

type firestoreReviewRepository struct {
	client *firestore.Client
}

func NewFirestoreReviewRepository(client *firestore.Client) repository.ReviewRepository {
	return &firestoreReviewRepository{
		client: client,
	}
}

func (r *firestoreReviewRepository) reviews() *firestore.CollectionRef {
	return r.client.Collection(reviewsCollection)
}

func (r *firestoreReviewRepository) Create(ctx context.Context, review *entity.Review) (*entity.ReviewSummary, error) {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = time.Now()

	productRef := r.client.Collection(productsCollection).Doc(review.ProductID)

	var summary entity.ReviewSummary
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(productRef); err != nil {
			if isNotFound(err) {
				return errors.NotFound("Product", err)
			}
			return err
		}

		docs, err := tx.Documents(r.reviews().Where("productId", "==", review.ProductID)).GetAll()
		if err != nil {
			return err
		}

		ratings := make([]int, 0, len(docs)+1)
		for _, doc := range docs {
			var existing entity.Review
			if err := doc.DataTo(&existing); err != nil {
				return err
			}
			ratings = append(ratings, existing.Rating)
		}
		ratings = append(ratings, review.Rating)
		summary = service.Summarize(ratings)

		if err := tx.Create(r.reviews().Doc(review.ID), review); err != nil {
			return err
		}
		return tx.Update(productRef, []firestore.Update{
			{Path: "rating", Value: summary.AverageRating},
			{Path: "reviewCount", Value: summary.TotalCount},
			{Path: "updatedAt", Value: time.Now()},
		})
	})

	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.TransactionFailed("Failed to create review", err)
	}

	return &summary, nil
}

func (r *firestoreReviewRepository) ListByProduct(ctx context.Context, productID string) ([]*entity.Review, error) {
	iter := r.reviews().Where("productId", "==", productID).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	reviews := []*entity.Review{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list reviews", err)
		}

		var review entity.Review
		if err := doc.DataTo(&review); err != nil {
			return nil, errors.Internal("Failed to parse review data", err)
		}
		reviews = append(reviews, &review)
	}
	return reviews, nil
}

func (r *firestoreReviewRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	docs, err := r.reviews().Where("userId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count reviews", err)
	}
	return int64(len(docs)), nil
}
