package usecase

import (
	"context"
	"strings"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
)

type CategoryUseCase struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

func NewCategoryUseCase(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

type CreateCategoryInput struct {
	Name        string
	Slug        string
	Description string
}

func (uc *CategoryUseCase) Create(ctx context.Context, input CreateCategoryInput) (*entity.Category, error) {
	slug := strings.ToLower(input.Slug)
	if _, err := uc.categoryRepo.GetBySlug(ctx, slug); err == nil {
		return nil, errors.Conflict("Category slug already exists")
	}

	category := &entity.Category{
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
	}
	if err := uc.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (uc *CategoryUseCase) List(ctx context.Context) ([]*entity.Category, error) {
	return uc.categoryRepo.List(ctx)
}

// Products lists the approved products of one category.
func (uc *CategoryUseCase) Products(ctx context.Context, categoryID string, page Page) ([]*entity.Product, int64, error) {
	if _, err := uc.categoryRepo.GetByID(ctx, categoryID); err != nil {
		return nil, 0, err
	}

	return uc.productRepo.List(ctx, repository.ProductFilter{
		Status:     entity.ProductStatusApproved,
		CategoryID: categoryID,
	}, page.Limit, page.Offset)
}
