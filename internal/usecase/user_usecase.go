package usecase

import (
	"context"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
)

type UserUseCase struct {
	userRepo    repository.UserRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
}

func NewUserUseCase(
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
) *UserUseCase {
	return &UserUseCase{
		userRepo:    userRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
	}
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

// UpdateProfileInput is the self-service projection. Role is not part of it.
type UpdateProfileInput struct {
	Username *string
	Email    *string
	FullName *string
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) ListUsers(ctx context.Context, page Page) ([]*entity.User, int64, error) {
	return uc.userRepo.List(ctx, page.Limit, page.Offset)
}

type AdminUpdateUserInput struct {
	FullName *string
	Email    *string
	Role     *string
}

func (uc *UserUseCase) AdminUpdateUser(ctx context.Context, actor *entity.User, targetID string, input AdminUpdateUserInput) (*entity.User, error) {
	if input.Role != nil && !entity.ValidRole(*input.Role) {
		return nil, errors.BadRequest("Invalid role", nil)
	}
	if input.Role != nil && actor.ID == targetID && actor.IsAdmin() && *input.Role != entity.RoleAdmin {
		return nil, errors.InvalidOperation("Cannot demote yourself from admin role")
	}

	user, err := uc.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		user.Role = *input.Role
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser refuses while the user still owns orders, products or reviews.
func (uc *UserUseCase) DeleteUser(ctx context.Context, actor *entity.User, targetID string) error {
	if actor.ID == targetID {
		return errors.InvalidOperation("Cannot delete your own account")
	}

	if _, err := uc.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	orders, err := uc.orderRepo.CountByUser(ctx, targetID)
	if err != nil {
		return err
	}
	products, err := uc.productRepo.CountBySeller(ctx, targetID)
	if err != nil {
		return err
	}
	reviews, err := uc.reviewRepo.CountByUser(ctx, targetID)
	if err != nil {
		return err
	}
	if orders+products+reviews > 0 {
		return errors.Conflict("User still has orders, products or reviews")
	}

	return uc.userRepo.Delete(ctx, targetID)
}
