package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"marketplace/internal/domain/entity"
	"marketplace/internal/usecase"
	"marketplace/pkg/errors"
	"marketplace/pkg/response"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	maxIdempotencyKeyLen = 100
)

type OrderHandler struct {
	orderUseCase *usecase.OrderUseCase
}

func NewOrderHandler(orderUseCase *usecase.OrderUseCase) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
	}
}

// OrderOwner resolves the buyer of an order for ownership checks.
func (h *OrderHandler) OrderOwner(ctx context.Context, id string) (string, error) {
	return h.orderUseCase.OwnerID(ctx, id)
}

type shippingAddressRequest struct {
	FullName   string `json:"full_name" validate:"required,max=100"`
	Address    string `json:"address" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"omitempty,max=30"`
}

type checkoutRequest struct {
	ShippingAddress      *shippingAddressRequest `json:"shipping_address"`
	DeliveryInstructions string                  `json:"delivery_instructions" validate:"max=500"`
	PaymentMethod        string                  `json:"payment_method" validate:"max=50"`
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req checkoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	key := c.Request().Header.Get(HeaderIdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return response.Error(c, errors.BadRequest("Idempotency-Key must be at most 100 characters", nil))
	}

	var address *entity.ShippingAddress
	if req.ShippingAddress != nil {
		a := entity.ShippingAddress(*req.ShippingAddress)
		address = &a
	}

	order, replayed, err := h.orderUseCase.Checkout(c.Request().Context(), user.ID, usecase.CheckoutInput{
		ShippingAddress:      address,
		DeliveryInstructions: req.DeliveryInstructions,
		PaymentMethod:        req.PaymentMethod,
		IdempotencyKey:       key,
	})
	if err != nil {
		return response.Error(c, err)
	}

	if replayed {
		return response.Success(c, order)
	}
	return response.Created(c, order)
}

func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	orders, err := h.orderUseCase.ListMine(c.Request().Context(), user.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orderUseCase.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}

func (h *OrderHandler) ListSellerOrders(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	orders, err := h.orderUseCase.SellerOrders(c.Request().Context(), user.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, orders)
}

type fulfillmentRequest struct {
	FulfillmentStatus *string `json:"fulfillment_status" validate:"omitempty,oneof=pending processing shipped delivered"`
	TrackingNumber    *string `json:"tracking_number" validate:"omitempty,max=100"`
}

func (h *OrderHandler) UpdateFulfillment(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req fulfillmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.UpdateFulfillment(c.Request().Context(), user, c.Param("id"), usecase.FulfillmentInput{
		FulfillmentStatus: req.FulfillmentStatus,
		TrackingNumber:    req.TrackingNumber,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}
