package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/middleware"
	"marketplace/internal/domain/entity"
	"marketplace/internal/usecase"
	"marketplace/pkg/response"
)

type ProductHandler struct {
	productUseCase *usecase.ProductUseCase
}

func NewProductHandler(productUseCase *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{
		productUseCase: productUseCase,
	}
}

// ProductOwner resolves the seller of a product for ownership checks.
func (h *ProductHandler) ProductOwner(ctx context.Context, id string) (string, error) {
	return h.productUseCase.OwnerID(ctx, id)
}

type dimensionsRequest struct {
	Length float64 `json:"length" validate:"gt=0"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

func (d *dimensionsRequest) toEntity() *entity.Dimensions {
	if d == nil {
		return nil
	}
	dims := entity.Dimensions(*d)
	return &dims
}

type createProductRequest struct {
	Title       string             `json:"title" validate:"required,min=1,max=200"`
	Description string             `json:"description" validate:"required,min=10,max=5000"`
	Price       float64            `json:"price" validate:"required,gt=0,lte=999999.99,price"`
	CategoryID  string             `json:"category_id" validate:"max=36"`
	Images      []string           `json:"images" validate:"required,min=1,max=10,dive,required"`
	Files       []string           `json:"files" validate:"required,min=1,max=20,dive,required"`
	Type        string             `json:"type" validate:"required,oneof=digital physical"`
	Weight      float64            `json:"weight" validate:"omitempty,gt=0"`
	Dimensions  *dimensionsRequest `json:"dimensions"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.Create(c.Request().Context(), user.ID, usecase.CreateProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Images:      req.Images,
		Files:       req.Files,
		Type:        req.Type,
		Weight:      req.Weight,
		Dimensions:  req.Dimensions.toEntity(),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, product)
}

// Only these fields are writable after creation.
type updateProductRequest struct {
	Title       *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string            `json:"description" validate:"omitempty,min=10,max=5000"`
	Price       *float64           `json:"price" validate:"omitempty,gt=0,lte=999999.99,price"`
	CategoryID  *string            `json:"category_id" validate:"omitempty,max=36"`
	Images      []string           `json:"images" validate:"omitempty,min=1,max=10,dive,required"`
	Files       []string           `json:"files" validate:"omitempty,min=1,max=20,dive,required"`
	Weight      *float64           `json:"weight" validate:"omitempty,gt=0"`
	Dimensions  *dimensionsRequest `json:"dimensions"`
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req updateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.Update(c.Request().Context(), c.Param("id"), usecase.UpdateProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Images:      req.Images,
		Files:       req.Files,
		Weight:      req.Weight,
		Dimensions:  req.Dimensions.toEntity(),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	if err := h.productUseCase.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Product deleted successfully"})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	product, err := h.productUseCase.Get(c.Request().Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, product)
}

type listProductsRequest struct {
	CategoryID string `query:"category_id" validate:"max=36"`
	Type       string `query:"type" param:"type" validate:"omitempty,oneof=digital physical"`
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	var req listProductsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	page, params := pageParams(c)
	products, total, err := h.productUseCase.ListApproved(c.Request().Context(), usecase.ProductListFilter{
		CategoryID: req.CategoryID,
		Type:       req.Type,
	}, page)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, products, total, params.Page, params.PageSize)
}

func (h *ProductHandler) ListMyProducts(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	page, params := pageParams(c)
	products, total, err := h.productUseCase.ListBySeller(c.Request().Context(), user.ID, page)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, products, total, params.Page, params.PageSize)
}
