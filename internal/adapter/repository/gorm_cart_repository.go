package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
)

type gormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) repository.CartRepository {
	return &gormCartRepository{db: db}
}

func (r *gormCartRepository) Add(ctx context.Context, userID, productID string) (*entity.CartItem, bool, error) {
	item := &entity.CartItem{
		ID:        entity.CartItemID(userID, productID),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(item)
	if res.Error != nil {
		return nil, false, errors.Internal("Failed to add to cart", res.Error)
	}
	if res.RowsAffected == 1 {
		return item, true, nil
	}

	var existing entity.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&existing).Error
	if err != nil {
		return nil, false, gormError("Cart item", "Failed to read cart item", err)
	}
	return &existing, false, nil
}

func (r *gormCartRepository) Remove(ctx context.Context, userID, productID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&entity.CartItem{})
	if res.Error != nil {
		return false, errors.Internal("Failed to remove from cart", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormCartRepository) ListByUser(ctx context.Context, userID string) ([]*entity.CartItem, error) {
	var items []*entity.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, errors.Internal("Failed to get cart", err)
	}
	return items, nil
}

func (r *gormCartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entity.CartItem{}).Error; err != nil {
		return errors.Internal("Failed to clear cart", err)
	}
	return nil
}
