package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
)

type firestoreCategoryRepository struct {
	client *firestore.Client
}

func NewFirestoreCategoryRepository(client *firestore.Client) repository.CategoryRepository {
	return &firestoreCategoryRepository{
		client: client,
	}
}

func (r *firestoreCategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	category.CreatedAt = time.Now()

	slugRef := r.client.Collection(uniqueKeysCollection).Doc(uniqueKeyID("categorySlug", category.Slug))
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		taken, err := reserved(tx, slugRef)
		if err != nil {
			return err
		}
		if taken {
			return errors.Conflict("Category slug already exists")
		}
		if err := tx.Create(slugRef, map[string]interface{}{"categoryId": category.ID}); err != nil {
			return err
		}
		return tx.Create(r.client.Collection(categoriesCollection).Doc(category.ID), category)
	})

	return firestoreError("Category", "Failed to create category", err)
}

func (r *firestoreCategoryRepository) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	doc, err := r.client.Collection(categoriesCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, firestoreError("Category", "Failed to get category", err)
	}

	var category entity.Category
	if err := doc.DataTo(&category); err != nil {
		return nil, errors.Internal("Failed to parse category data", err)
	}
	return &category, nil
}

func (r *firestoreCategoryRepository) GetBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	iter := r.client.Collection(categoriesCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Category", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query category", err)
	}

	var category entity.Category
	if err := doc.DataTo(&category); err != nil {
		return nil, errors.Internal("Failed to parse category data", err)
	}
	return &category, nil
}

func (r *firestoreCategoryRepository) List(ctx context.Context) ([]*entity.Category, error) {
	iter := r.client.Collection(categoriesCollection).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	categories := []*entity.Category{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list categories", err)
		}

		var category entity.Category
		if err := doc.DataTo(&category); err != nil {
			return nil, errors.Internal("Failed to parse category data", err)
		}
		categories = append(categories, &category)
	}
	return categories, nil
}
