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

type firestoreProductRepository struct {
	client *firestore.Client
}

func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{
		client: client,
	}
}

func (r *firestoreProductRepository) products() *firestore.CollectionRef {
	return r.client.Collection(productsCollection)
}

func (r *firestoreProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := r.products().Doc(product.ID).Create(ctx, product)
	if err != nil {
		return firestoreError("Product", "Failed to create product", err)
	}
	return nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	doc, err := r.products().Doc(id).Get(ctx)
	if err != nil {
		return nil, firestoreError("Product", "Failed to get product", err)
	}

	var product entity.Product
	if err := doc.DataTo(&product); err != nil {
		return nil, errors.Internal("Failed to parse product data", err)
	}
	return &product, nil
}

func (r *firestoreProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	products := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.products().Doc(id))
	}

	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, errors.Internal("Failed to get products", err)
	}

	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var product entity.Product
		if err := doc.DataTo(&product); err != nil {
			return nil, errors.Internal("Failed to parse product data", err)
		}
		products[product.ID] = &product
	}
	return products, nil
}

func (r *firestoreProductRepository) Update(ctx context.Context, product *entity.Product) error {
	product.UpdatedAt = time.Now()

	_, err := r.products().Doc(product.ID).Update(ctx, []firestore.Update{
		{Path: "title", Value: product.Title},
		{Path: "description", Value: product.Description},
		{Path: "price", Value: product.Price},
		{Path: "categoryId", Value: product.CategoryID},
		{Path: "images", Value: product.Images},
		{Path: "files", Value: product.Files},
		{Path: "weight", Value: product.Weight},
		{Path: "dimensions", Value: product.Dimensions},
		{Path: "updatedAt", Value: product.UpdatedAt},
	})
	return firestoreError("Product", "Failed to update product", err)
}

func (r *firestoreProductRepository) SetStatus(ctx context.Context, id, status string) error {
	_, err := r.products().Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: time.Now()},
	})
	return firestoreError("Product", "Failed to update product status", err)
}

func (r *firestoreProductRepository) Delete(ctx context.Context, id string) error {
	_, err := r.products().Doc(id).Delete(ctx, firestore.Exists)
	return firestoreError("Product", "Failed to delete product", err)
}

func (r *firestoreProductRepository) filtered(filter repository.ProductFilter) firestore.Query {
	query := r.products().Query
	if filter.Status != "" {
		query = query.Where("status", "==", filter.Status)
	}
	if filter.CategoryID != "" {
		query = query.Where("categoryId", "==", filter.CategoryID)
	}
	if filter.Type != "" {
		query = query.Where("type", "==", filter.Type)
	}
	if filter.SellerID != "" {
		query = query.Where("sellerId", "==", filter.SellerID)
	}
	return query
}

func (r *firestoreProductRepository) List(ctx context.Context, filter repository.ProductFilter, limit, offset int) ([]*entity.Product, int64, error) {
	query := r.filtered(filter)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count products", err)
	}
	total := int64(len(countDocs))

	query = query.OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	products := []*entity.Product{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to list products", err)
		}

		var product entity.Product
		if err := doc.DataTo(&product); err != nil {
			return nil, 0, errors.Internal("Failed to parse product data", err)
		}
		products = append(products, &product)
	}

	return products, total, nil
}

func (r *firestoreProductRepository) CountBySeller(ctx context.Context, sellerID string) (int64, error) {
	docs, err := r.filtered(repository.ProductFilter{SellerID: sellerID}).Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count products", err)
	}
	return int64(len(docs)), nil
}
