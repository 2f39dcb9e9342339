package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
)

type gormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) repository.ProductRepository {
	return &gormProductRepository{db: db}
}

func (r *gormProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return gormError("Product", "Failed to create product", err)
	}
	return nil
}

func (r *gormProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var product entity.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, gormError("Product", "Failed to get product", err)
	}
	return &product, nil
}

func (r *gormProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	result := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []*entity.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, errors.Internal("Failed to get products", err)
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (r *gormProductRepository) Update(ctx context.Context, product *entity.Product) error {
	product.UpdatedAt = time.Now()

	res := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("id = ?", product.ID).
		Select("title", "description", "price", "category_id", "images", "files", "weight", "dimensions", "updated_at").
		Updates(product)
	if res.Error != nil {
		return gormError("Product", "Failed to update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("Product", nil)
	}
	return nil
}

func (r *gormProductRepository) SetStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return errors.Internal("Failed to update product status", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("Product", nil)
	}
	return nil
}

func (r *gormProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Product{})
	if res.Error != nil {
		return errors.Internal("Failed to delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("Product", nil)
	}
	return nil
}

func (r *gormProductRepository) List(ctx context.Context, filter repository.ProductFilter, limit, offset int) ([]*entity.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&entity.Product{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.SellerID != "" {
		q = q.Where("seller_id = ?", filter.SellerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Internal("Failed to count products", err)
	}

	var products []*entity.Product
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, 0, errors.Internal("Failed to list products", err)
	}
	return products, total, nil
}

func (r *gormProductRepository) CountBySeller(ctx context.Context, sellerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Product{}).Where("seller_id = ?", sellerID).Count(&count).Error; err != nil {
		return 0, errors.Internal("Failed to count products", err)
	}
	return count, nil
}
