package usecase

import (
	"context"
	"fmt"
	"time"

	nanoid "github.com/jaevor/go-nanoid"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

const (
	referralAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralCodeLength = 8
	recentReferrals    = 5
	topReferrers       = 10
)

type ReferralUseCase struct {
	userRepo repository.UserRepository
	generate func() string
	baseURL  string
}

func NewReferralUseCase(userRepo repository.UserRepository, baseURL string) (*ReferralUseCase, error) {
	generate, err := nanoid.CustomASCII(referralAlphabet, referralCodeLength)
	if err != nil {
		return nil, fmt.Errorf("referral code generator: %w", err)
	}

	return &ReferralUseCase{
		userRepo: userRepo,
		generate: generate,
		baseURL:  baseURL,
	}, nil
}

// GenerateUniqueCode re-rolls until the store reports the code unused. It only
// gives up when ctx is done.
func (uc *ReferralUseCase) GenerateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", errors.Internal("Referral code generation cancelled", err)
		}

		code := uc.generate()
		exists, err := uc.userRepo.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		logger.Debug("referral code collision on attempt %d", attempt)
	}
}

type ReferrerInfo struct {
	ID       string `json:"-"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type ReferralValidation struct {
	Valid    bool          `json:"valid"`
	Referrer *ReferrerInfo `json:"referrer,omitempty"`
}

// ValidateCode never errors on an unknown code; it reports valid=false.
func (uc *ReferralUseCase) ValidateCode(ctx context.Context, code string) (*ReferralValidation, error) {
	if code == "" {
		return &ReferralValidation{Valid: false}, nil
	}

	referrer, err := uc.userRepo.GetByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return &ReferralValidation{Valid: false}, nil
		}
		return nil, err
	}

	return &ReferralValidation{
		Valid: true,
		Referrer: &ReferrerInfo{
			ID:       referrer.ID,
			Username: referrer.Username,
			FullName: referrer.FullName,
		},
	}, nil
}

type ReferredUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	CreatedAt string `json:"created_at"`
}

type ReferralStats struct {
	TotalReferrals  int64          `json:"total_referrals"`
	RecentReferrals []ReferredUser `json:"recent_referrals"`
}

func toReferred(users []*entity.User) []ReferredUser {
	out := make([]ReferredUser, 0, len(users))
	for _, u := range users {
		out = append(out, ReferredUser{
			ID:        u.ID,
			Username:  u.Username,
			FullName:  u.FullName,
			CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// GetStats is recomputed from the user collection on every call.
func (uc *ReferralUseCase) GetStats(ctx context.Context, userID string) (*ReferralStats, error) {
	total, err := uc.userRepo.CountReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := uc.userRepo.ListReferrals(ctx, userID, recentReferrals)
	if err != nil {
		return nil, err
	}

	return &ReferralStats{
		TotalReferrals:  total,
		RecentReferrals: toReferred(recent),
	}, nil
}

func (uc *ReferralUseCase) MyReferrals(ctx context.Context, userID string) ([]ReferredUser, error) {
	users, err := uc.userRepo.ListReferrals(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	return toReferred(users), nil
}

type ReferralLink struct {
	ReferralLink string `json:"referral_link"`
	ReferralCode string `json:"referral_code"`
}

func (uc *ReferralUseCase) GetLink(ctx context.Context, userID string) (*ReferralLink, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ReferralLink{
		ReferralLink: fmt.Sprintf("%s/register?ref=%s", uc.baseURL, user.ReferralCode),
		ReferralCode: user.ReferralCode,
	}, nil
}

type TopReferrer struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	ReferralCode   string `json:"referral_code"`
	TotalReferrals int    `json:"total_referrals"`
}

type ReferralAnalytics struct {
	TotalUsers              int64         `json:"total_users"`
	TotalReferrals          int64         `json:"total_referrals"`
	ActiveReferrers         int64         `json:"active_referrers"`
	AverageReferralsPerUser float64       `json:"average_referrals_per_user"`
	TopReferrers            []TopReferrer `json:"top_referrers"`
}

func (uc *ReferralUseCase) Analytics(ctx context.Context) (*ReferralAnalytics, error) {
	totals, err := uc.userRepo.ReferralTotals(ctx, topReferrers)
	if err != nil {
		return nil, err
	}

	analytics := &ReferralAnalytics{
		TotalUsers:      totals.TotalUsers,
		TotalReferrals:  totals.TotalReferrals,
		ActiveReferrers: totals.ActiveReferrers,
		TopReferrers:    make([]TopReferrer, 0, len(totals.TopReferrers)),
	}
	if totals.TotalUsers > 0 {
		analytics.AverageReferralsPerUser = roundTo2(float64(totals.TotalReferrals) / float64(totals.TotalUsers))
	}
	for _, u := range totals.TopReferrers {
		analytics.TopReferrers = append(analytics.TopReferrers, TopReferrer{
			ID:             u.ID,
			Username:       u.Username,
			FullName:       u.FullName,
			ReferralCode:   u.ReferralCode,
			TotalReferrals: u.TotalReferrals,
		})
	}
	return analytics, nil
}

type UserReferralDetails struct {
	User      *entity.User   `json:"user"`
	Referrals []ReferredUser `json:"referrals"`
	Stats     *ReferralStats `json:"stats"`
}

func (uc *ReferralUseCase) UserDetails(ctx context.Context, userID string) (*UserReferralDetails, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	referrals, err := uc.MyReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := uc.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserReferralDetails{
		User:      user,
		Referrals: referrals,
		Stats:     stats,
	}, nil
}
