package repository

import (
	"context"

	"marketplace/internal/domain/entity"
)

type UserRepository interface {
	// Create persists a new user. Username, email and referral code must be unique;
	// a taken referral code is reported as REFERRAL_CODE_TAKEN so callers can re-roll.
	// When ReferrerID is set the referrer's TotalReferrals is incremented in the same transaction.
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByReferralCode(ctx context.Context, code string) (*entity.User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	// Update writes username, email, full name and role.
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*entity.User, int64, error)

	// ListReferrals returns users referred by referrerID, newest first. limit <= 0 means all.
	ListReferrals(ctx context.Context, referrerID string, limit int) ([]*entity.User, error)
	CountReferrals(ctx context.Context, referrerID string) (int64, error)
	ReferralTotals(ctx context.Context, top int) (*ReferralTotals, error)
}

// ReferralTotals is the raw material for the admin referral analytics.
type ReferralTotals struct {
	TotalUsers      int64
	TotalReferrals  int64
	ActiveReferrers int64
	TopReferrers    []*entity.User
}
