package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
)

type firestoreCartRepository struct {
	client *firestore.Client
}

func NewFirestoreCartRepository(client *firestore.Client) repository.CartRepository {
	return &firestoreCartRepository{
		client: client,
	}
}

func (r *firestoreCartRepository) Add(ctx context.Context, userID, productID string) (*entity.CartItem, bool, error) {
	ref := r.client.Collection(cartCollection).Doc(entity.CartItemID(userID, productID))

	var item entity.CartItem
	var created bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		snap, err := tx.Get(ref)
		if err == nil {
			return snap.DataTo(&item)
		}
		if !isNotFound(err) {
			return err
		}

		item = entity.CartItem{
			ID:        ref.ID,
			UserID:    userID,
			ProductID: productID,
			CreatedAt: time.Now(),
		}
		created = true
		return tx.Create(ref, &item)
	})
	if err != nil {
		return nil, false, firestoreError("Cart item", "Failed to add cart item", err)
	}

	return &item, created, nil
}

func (r *firestoreCartRepository) Remove(ctx context.Context, userID, productID string) (bool, error) {
	ref := r.client.Collection(cartCollection).Doc(entity.CartItemID(userID, productID))

	var removed bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		removed = false
		if _, err := tx.Get(ref); err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		removed = true
		return tx.Delete(ref)
	})
	if err != nil {
		return false, errors.Internal("Failed to remove cart item", err)
	}
	return removed, nil
}

func (r *firestoreCartRepository) ListByUser(ctx context.Context, userID string) ([]*entity.CartItem, error) {
	iter := r.client.Collection(cartCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	items := []*entity.CartItem{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list cart", err)
		}

		var item entity.CartItem
		if err := doc.DataTo(&item); err != nil {
			return nil, errors.Internal("Failed to parse cart item", err)
		}
		items = append(items, &item)
	}
	return items, nil
}

func (r *firestoreCartRepository) Clear(ctx context.Context, userID string) error {
	docs, err := r.client.Collection(cartCollection).Where("userId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return errors.Internal("Failed to load cart", err)
	}
	if len(docs) == 0 {
		return nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, doc := range docs {
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return errors.Internal("Failed to clear cart", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return errors.Internal("Failed to clear cart", err)
		}
	}
	return nil
}
