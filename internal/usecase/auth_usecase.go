package usecase

import (
	"context"
	"strings"
	"time"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/internal/infrastructure/auth"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

type AuthUseCase struct {
	userRepo repository.UserRepository
	referral *ReferralUseCase
	hasher   auth.PasswordHasher
	tokens   TokenIssuer
}

func NewAuthUseCase(
	userRepo repository.UserRepository,
	referral *ReferralUseCase,
	hasher auth.PasswordHasher,
	tokens TokenIssuer,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		referral: referral,
		hasher:   hasher,
		tokens:   tokens,
	}
}

type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	FullName     string
	ReferralCode string
}

type AuthResult struct {
	User      *entity.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if _, err := uc.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, errors.Conflict("Email already exists")
	}
	if _, err := uc.userRepo.GetByUsername(ctx, input.Username); err == nil {
		return nil, errors.Conflict("Username already exists")
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	user := &entity.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         entity.RoleUser,
	}

	// An unknown code is ignored rather than failing the signup.
	if input.ReferralCode != "" {
		validation, err := uc.referral.ValidateCode(ctx, strings.ToUpper(input.ReferralCode))
		if err != nil {
			return nil, err
		}
		if validation.Valid {
			user.ReferrerID = validation.Referrer.ID
		} else {
			logger.Info("registration with unknown referral code %q ignored", input.ReferralCode)
		}
	}

	for {
		code, err := uc.referral.GenerateUniqueCode(ctx)
		if err != nil {
			return nil, err
		}
		user.ReferralCode = code

		err = uc.userRepo.Create(ctx, user)
		if err == nil {
			break
		}
		if errors.Is(err, errors.CodeReferralCodeTaken) {
			user.ID = ""
			continue
		}
		return nil, err
	}

	return uc.issue(user)
}

// Login accepts either the username or the email as identifier.
func (uc *AuthUseCase) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	var user *entity.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = uc.userRepo.GetByEmail(ctx, identifier)
	} else {
		user, err = uc.userRepo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Unauthorized("Invalid credentials", nil)
		}
		return nil, err
	}

	if user.PasswordHash == "" || !uc.hasher.Compare(user.PasswordHash, password) {
		return nil, errors.Unauthorized("Invalid credentials", nil)
	}

	return uc.issue(user)
}

func (uc *AuthUseCase) issue(user *entity.User) (*AuthResult, error) {
	token, expiresAt, err := uc.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, errors.Internal("Failed to generate authentication token", err)
	}

	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolvePrincipal maps a verified token identity onto the stored user.
func (uc *AuthUseCase) ResolvePrincipal(ctx context.Context, identity *auth.Identity) (*entity.User, error) {
	if identity.UserID != "" {
		return uc.userRepo.GetByID(ctx, identity.UserID)
	}
	if identity.Email != "" {
		return uc.userRepo.GetByEmail(ctx, identity.Email)
	}
	return nil, errors.Unauthorized("Invalid token", nil)
}
