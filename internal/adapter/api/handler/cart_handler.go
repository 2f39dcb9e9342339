package handler

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/usecase"
	"marketplace/pkg/response"
)

type CartHandler struct {
	cartUseCase *usecase.CartUseCase
}

func NewCartHandler(cartUseCase *usecase.CartUseCase) *CartHandler {
	return &CartHandler{
		cartUseCase: cartUseCase,
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	lines, err := h.cartUseCase.Items(c.Request().Context(), user.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, lines)
}

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required,max=36"`
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req addToCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	item, created, err := h.cartUseCase.Add(c.Request().Context(), user.ID, req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}

	if created {
		return response.Created(c, item)
	}
	return response.Success(c, item)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	removed, err := h.cartUseCase.Remove(c.Request().Context(), user.ID, c.Param("productId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"removed": removed})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.cartUseCase.Clear(c.Request().Context(), user.ID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Cart cleared"})
}
