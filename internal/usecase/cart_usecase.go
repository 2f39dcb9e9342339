package usecase

import (
	"context"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
)

type CartUseCase struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartUseCase(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartUseCase {
	return &CartUseCase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Add is idempotent: a second add for the same product returns the existing row.
func (uc *CartUseCase) Add(ctx context.Context, userID, productID string) (*entity.CartItem, bool, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	if !product.IsApproved() {
		return nil, false, errors.NotFound("Product", nil)
	}

	return uc.cartRepo.Add(ctx, userID, productID)
}

func (uc *CartUseCase) Remove(ctx context.Context, userID, productID string) (bool, error) {
	return uc.cartRepo.Remove(ctx, userID, productID)
}

// Items joins every row with the product as it is now. Rows whose product has
// been deleted are left out.
func (uc *CartUseCase) Items(ctx context.Context, userID string) ([]*entity.CartLine, error) {
	rows, err := uc.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}

	products, err := uc.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]*entity.CartLine, 0, len(rows))
	for _, row := range rows {
		product, ok := products[row.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, &entity.CartLine{CartItem: *row, Product: product})
	}
	return lines, nil
}

func (uc *CartUseCase) Clear(ctx context.Context, userID string) error {
	return uc.cartRepo.Clear(ctx, userID)
}
