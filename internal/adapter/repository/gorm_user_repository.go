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

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) repository.UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := exists(tx, "username = ?", user.Username); err != nil {
			return err
		} else if taken {
			return errors.Conflict("Username already exists")
		}
		if taken, err := exists(tx, "email = ?", user.Email); err != nil {
			return err
		} else if taken {
			return errors.Conflict("Email already exists")
		}
		if taken, err := exists(tx, "referral_code = ?", user.ReferralCode); err != nil {
			return err
		} else if taken {
			return errors.ReferralCodeTaken()
		}

		if user.ReferrerID != "" {
			res := tx.Model(&entity.User{}).
				Where("id = ?", user.ReferrerID).
				UpdateColumn("total_referrals", gorm.Expr("total_referrals + ?", 1))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errors.NotFound("Referrer", nil)
			}
		}

		return tx.Create(user).Error
	})

	return gormError("User", "Failed to create user", err)
}

func exists(tx *gorm.DB, query string, arg interface{}) (bool, error) {
	var count int64
	if err := tx.Model(&entity.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormUserRepository) getBy(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, gormError("User", "Failed to get user", err)
	}
	return &user, nil
}

func (r *gormUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id = ?", id)
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email = ?", email)
}

func (r *gormUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getBy(ctx, "username = ?", username)
}

func (r *gormUserRepository) GetByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	return r.getBy(ctx, "referral_code = ?", code)
}

func (r *gormUserRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	taken, err := exists(r.db.WithContext(ctx), "referral_code = ?", code)
	if err != nil {
		return false, errors.Internal("Failed to check referral code", err)
	}
	return taken, nil
}

func (r *gormUserRepository) Update(ctx context.Context, user *entity.User) error {
	user.UpdatedAt = time.Now()

	res := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"username":   user.Username,
			"email":      user.Email,
			"full_name":  user.FullName,
			"role":       user.Role,
			"updated_at": user.UpdatedAt,
		})
	if res.Error != nil {
		return gormError("User", "Failed to update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("User", nil)
	}
	return nil
}

func (r *gormUserRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.User{})
	if res.Error != nil {
		return errors.Internal("Failed to delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("User", nil)
	}
	return nil
}

func (r *gormUserRepository) List(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Internal("Failed to count users", err)
	}

	var users []*entity.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, errors.Internal("Failed to list users", err)
	}
	return users, total, nil
}

func (r *gormUserRepository) ListReferrals(ctx context.Context, referrerID string, limit int) ([]*entity.User, error) {
	q := r.db.WithContext(ctx).Where("referrer_id = ?", referrerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var users []*entity.User
	if err := q.Find(&users).Error; err != nil {
		return nil, errors.Internal("Failed to list referrals", err)
	}
	return users, nil
}

func (r *gormUserRepository) CountReferrals(ctx context.Context, referrerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Where("referrer_id = ?", referrerID).Count(&count).Error
	if err != nil {
		return 0, errors.Internal("Failed to count referrals", err)
	}
	return count, nil
}

func (r *gormUserRepository) ReferralTotals(ctx context.Context, top int) (*repository.ReferralTotals, error) {
	db := r.db.WithContext(ctx)
	totals := &repository.ReferralTotals{}

	if err := db.Model(&entity.User{}).Count(&totals.TotalUsers).Error; err != nil {
		return nil, errors.Internal("Failed to count users", err)
	}
	if err := db.Model(&entity.User{}).Where("referrer_id <> ''").Count(&totals.TotalReferrals).Error; err != nil {
		return nil, errors.Internal("Failed to count referrals", err)
	}
	if err := db.Model(&entity.User{}).Where("total_referrals > 0").Count(&totals.ActiveReferrers).Error; err != nil {
		return nil, errors.Internal("Failed to count referrers", err)
	}
	err := db.Where("total_referrals > 0").
		Order("total_referrals DESC").
		Order("created_at ASC").
		Limit(top).
		Find(&totals.TopReferrers).Error
	if err != nil {
		return nil, errors.Internal("Failed to list top referrers", err)
	}
	return totals, nil
}
