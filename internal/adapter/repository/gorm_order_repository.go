package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
)

type gormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &gormOrderRepository{db: db}
}

func (r *gormOrderRepository) CreateWithItems(ctx context.Context, order *entity.Order, items []entity.OrderItem) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	order.SalesCounted = order.Status == entity.OrderStatusCompleted
	order.Items = nil

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		items[i].OrderID = order.ID
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.IdempotencyKey != nil {
			var count int64
			err := tx.Model(&entity.Order{}).
				Where("user_id = ? AND idempotency_key = ?", order.UserID, *order.IdempotencyKey).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return errors.Conflict("Order already exists")
			}
		}
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		if order.SalesCounted {
			return incrementSalesCounts(tx, items)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.CodeConflict) || stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Conflict("Order already exists")
		}
		return errors.OrderCreationFailed(err)
	}

	order.Items = items
	return nil
}

func (r *gormOrderRepository) UpdateStatus(ctx context.Context, id string, update entity.OrderStatusUpdate) (*entity.Order, error) {
	var updated entity.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current entity.Order
		if err := forUpdate(tx).First(&current, "id = ?", id).Error; err != nil {
			return err
		}

		// Claim the one-time sales increment. Only one transaction can flip the flag.
		transitioned := false
		if update.Status != nil && *update.Status == entity.OrderStatusCompleted {
			res := tx.Model(&entity.Order{}).
				Where("id = ? AND sales_counted = ?", id, false).
				Updates(map[string]interface{}{"sales_counted": true, "status": entity.OrderStatusCompleted})
			if res.Error != nil {
				return res.Error
			}
			transitioned = res.RowsAffected == 1
		}

		fields := map[string]interface{}{"updated_at": time.Now()}
		if update.Status != nil {
			fields["status"] = *update.Status
		}
		if update.PaymentStatus != nil {
			fields["payment_status"] = *update.PaymentStatus
		}
		if update.FulfillmentStatus != nil {
			fields["fulfillment_status"] = *update.FulfillmentStatus
		}
		if update.TrackingNumber != nil {
			fields["tracking_number"] = *update.TrackingNumber
		}
		if update.ShippingCost != nil {
			fields["shipping_cost"] = *update.ShippingCost
		}
		if update.PaymentMethod != nil {
			fields["payment_method"] = *update.PaymentMethod
		}
		if err := tx.Model(&entity.Order{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}

		if transitioned {
			var items []entity.OrderItem
			if err := tx.Where("order_id = ?", id).Find(&items).Error; err != nil {
				return err
			}
			if err := incrementSalesCounts(tx, items); err != nil {
				return err
			}
		}

		return tx.Preload("Items").First(&updated, "id = ?", id).Error
	})
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Order", err)
		}
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.TransactionFailed("Failed to update order status", err)
	}
	return &updated, nil
}

func (r *gormOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, gormError("Order", "Failed to get order", err)
	}
	return &order, nil
}

func (r *gormOrderRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error
	if err != nil {
		return nil, gormError("Order", "Failed to get order", err)
	}
	return &order, nil
}

func (r *gormOrderRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Order, error) {
	var orders []*entity.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Internal("Failed to list orders", err)
	}
	return orders, nil
}

func (r *gormOrderRepository) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Order, error) {
	var orderIDs []string
	err := r.db.WithContext(ctx).
		Model(&entity.OrderItem{}).
		Where("seller_id = ?", sellerID).
		Distinct().
		Pluck("order_id", &orderIDs).Error
	if err != nil {
		return nil, errors.Internal("Failed to list seller orders", err)
	}
	if len(orderIDs) == 0 {
		return []*entity.Order{}, nil
	}

	var orders []*entity.Order
	err = r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN ?", orderIDs).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Internal("Failed to list seller orders", err)
	}
	return orders, nil
}

func (r *gormOrderRepository) List(ctx context.Context, limit, offset int) ([]*entity.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Order{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Internal("Failed to count orders", err)
	}

	var orders []*entity.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, errors.Internal("Failed to list orders", err)
	}
	return orders, total, nil
}

func (r *gormOrderRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Order{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, errors.Internal("Failed to count orders", err)
	}
	return count, nil
}
