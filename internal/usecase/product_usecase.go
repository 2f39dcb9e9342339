package usecase

import (
	"context"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/internal/domain/service"
	"marketplace/pkg/errors"
)

type ProductUseCase struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductUseCase(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

type CreateProductInput struct {
	Title       string
	Description string
	Price       float64
	CategoryID  string
	Images      []string
	Files       []string
	Type        string
	Weight      float64
	Dimensions  *entity.Dimensions
}

// UpdateProductInput is the seller-editable projection. Status and the
// derived counters are structurally absent.
type UpdateProductInput struct {
	Title       *string
	Description *string
	Price       *float64
	CategoryID  *string
	Images      []string
	Files       []string
	Weight      *float64
	Dimensions  *entity.Dimensions
}

func checkPrice(price float64) error {
	if price <= 0 || !service.IsCentAmount(price) {
		return errors.BadRequest("Price must be greater than 0 with at most 2 decimal places", nil)
	}
	return nil
}

func checkPhysical(productType string, weight float64, dims *entity.Dimensions) error {
	if productType != entity.ProductTypePhysical {
		return nil
	}
	if weight <= 0 {
		return errors.BadRequest("Physical products require a weight greater than 0", nil)
	}
	if dims == nil || dims.Length <= 0 || dims.Width <= 0 || dims.Height <= 0 {
		return errors.BadRequest("Physical products require length, width and height greater than 0", nil)
	}
	return nil
}

func (uc *ProductUseCase) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	if _, err := uc.categoryRepo.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return errors.BadRequest("Unknown category", nil)
		}
		return err
	}
	return nil
}

func (uc *ProductUseCase) Create(ctx context.Context, sellerID string, input CreateProductInput) (*entity.Product, error) {
	if err := checkPrice(input.Price); err != nil {
		return nil, err
	}
	if err := checkPhysical(input.Type, input.Weight, input.Dimensions); err != nil {
		return nil, err
	}
	if err := uc.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	product := &entity.Product{
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		SellerID:    sellerID,
		Images:      input.Images,
		Files:       input.Files,
		Type:        input.Type,
		Status:      entity.ProductStatusPending,
	}
	if input.Type == entity.ProductTypePhysical {
		product.Weight = input.Weight
		product.Dimensions = input.Dimensions
	}

	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (uc *ProductUseCase) Update(ctx context.Context, productID string, input UpdateProductInput) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		product.Title = *input.Title
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if err := checkPrice(*input.Price); err != nil {
			return nil, err
		}
		product.Price = *input.Price
	}
	if input.CategoryID != nil {
		if err := uc.checkCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *input.CategoryID
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.Files != nil {
		product.Files = input.Files
	}
	if input.Weight != nil {
		product.Weight = *input.Weight
	}
	if input.Dimensions != nil {
		product.Dimensions = input.Dimensions
	}

	if err := checkPhysical(product.Type, product.Weight, product.Dimensions); err != nil {
		return nil, err
	}

	if err := uc.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return uc.productRepo.GetByID(ctx, productID)
}

func (uc *ProductUseCase) Delete(ctx context.Context, productID string) error {
	return uc.productRepo.Delete(ctx, productID)
}

// Get hides unapproved products from everyone but their seller and admins.
func (uc *ProductUseCase) Get(ctx context.Context, productID string, viewer *entity.User) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.IsApproved() {
		return product, nil
	}
	if viewer != nil && (viewer.IsAdmin() || viewer.ID == product.SellerID) {
		return product, nil
	}
	return nil, errors.NotFound("Product", nil)
}

// OwnerID resolves the seller for ownership checks.
func (uc *ProductUseCase) OwnerID(ctx context.Context, productID string) (string, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return "", err
	}
	return product.SellerID, nil
}

type ProductListFilter struct {
	CategoryID string
	Type       string
}

// ListApproved is the buyer-facing catalogue.
func (uc *ProductUseCase) ListApproved(ctx context.Context, filter ProductListFilter, page Page) ([]*entity.Product, int64, error) {
	return uc.productRepo.List(ctx, repository.ProductFilter{
		Status:     entity.ProductStatusApproved,
		CategoryID: filter.CategoryID,
		Type:       filter.Type,
	}, page.Limit, page.Offset)
}

func (uc *ProductUseCase) ListBySeller(ctx context.Context, sellerID string, page Page) ([]*entity.Product, int64, error) {
	return uc.productRepo.List(ctx, repository.ProductFilter{SellerID: sellerID}, page.Limit, page.Offset)
}

func (uc *ProductUseCase) AdminList(ctx context.Context, status string, page Page) ([]*entity.Product, int64, error) {
	return uc.productRepo.List(ctx, repository.ProductFilter{Status: status}, page.Limit, page.Offset)
}

func (uc *ProductUseCase) Approve(ctx context.Context, productID string) (*entity.Product, error) {
	return uc.setStatus(ctx, productID, entity.ProductStatusApproved)
}

func (uc *ProductUseCase) Reject(ctx context.Context, productID string) (*entity.Product, error) {
	return uc.setStatus(ctx, productID, entity.ProductStatusRejected)
}

func (uc *ProductUseCase) setStatus(ctx context.Context, productID, status string) (*entity.Product, error) {
	if err := uc.productRepo.SetStatus(ctx, productID, status); err != nil {
		return nil, err
	}
	return uc.productRepo.GetByID(ctx, productID)
}
