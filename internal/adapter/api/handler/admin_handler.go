package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"marketplace/internal/domain/entity"
	"marketplace/internal/infrastructure/audit"
	"marketplace/internal/usecase"
	"marketplace/pkg/errors"
	"marketplace/pkg/response"
)

type AdminHandler struct {
	userUseCase     *usecase.UserUseCase
	productUseCase  *usecase.ProductUseCase
	orderUseCase    *usecase.OrderUseCase
	referralUseCase *usecase.ReferralUseCase
	auditLogger     audit.Logger
}

var adminHandler *AdminHandler

func NewAdminHandler(
	userUseCase *usecase.UserUseCase,
	productUseCase *usecase.ProductUseCase,
	orderUseCase *usecase.OrderUseCase,
	referralUseCase *usecase.ReferralUseCase,
	auditLogger audit.Logger,
) *AdminHandler {
	return &AdminHandler{
		userUseCase:     userUseCase,
		productUseCase:  productUseCase,
		orderUseCase:    orderUseCase,
		referralUseCase: referralUseCase,
		auditLogger:     auditLogger,
	}
}

func SetupAdminHandler(
	userUseCase *usecase.UserUseCase,
	productUseCase *usecase.ProductUseCase,
	orderUseCase *usecase.OrderUseCase,
	referralUseCase *usecase.ReferralUseCase,
	auditLogger audit.Logger,
) {
	adminHandler = NewAdminHandler(userUseCase, productUseCase, orderUseCase, referralUseCase, auditLogger)
}

func GetAdminHandler() *AdminHandler {
	return adminHandler
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, params := pageParams(c)

	users, total, err := h.userUseCase.ListUsers(c.Request().Context(), page)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, users, total, params.Page, params.PageSize)
}

type adminUpdateUserRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=2,max=100,fullname"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=user seller admin"`
}

func (h *AdminHandler) UpdateUser(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req adminUpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.AdminUpdateUser(c.Request().Context(), actor, c.Param("id"), usecase.AdminUpdateUserInput{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.userUseCase.DeleteUser(c.Request().Context(), actor, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "User deleted successfully"})
}

type adminListProductsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
}

func (h *AdminHandler) ListProducts(c echo.Context) error {
	var req adminListProductsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	return h.listProducts(c, req.Status)
}

func (h *AdminHandler) ListPendingProducts(c echo.Context) error {
	return h.listProducts(c, entity.ProductStatusPending)
}

func (h *AdminHandler) listProducts(c echo.Context, status string) error {
	page, params := pageParams(c)

	products, total, err := h.productUseCase.AdminList(c.Request().Context(), status, page)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, products, total, params.Page, params.PageSize)
}

func (h *AdminHandler) ApproveProduct(c echo.Context) error {
	product, err := h.productUseCase.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, product)
}

func (h *AdminHandler) RejectProduct(c echo.Context) error {
	product, err := h.productUseCase.Reject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, product)
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	page, params := pageParams(c)

	orders, total, err := h.orderUseCase.ListAll(c.Request().Context(), page)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, orders, total, params.Page, params.PageSize)
}

type updateOrderStatusRequest struct {
	Status            *string  `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
	PaymentStatus     *string  `json:"payment_status" validate:"omitempty,oneof=pending completed failed"`
	FulfillmentStatus *string  `json:"fulfillment_status" validate:"omitempty,oneof=pending processing shipped delivered"`
	TrackingNumber    *string  `json:"tracking_number" validate:"omitempty,max=100"`
	ShippingCost      *float64 `json:"shipping_cost" validate:"omitempty,gte=0"`
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	var req updateOrderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.UpdateStatus(c.Request().Context(), c.Param("id"), entity.OrderStatusUpdate{
		Status:            req.Status,
		PaymentStatus:     req.PaymentStatus,
		FulfillmentStatus: req.FulfillmentStatus,
		TrackingNumber:    req.TrackingNumber,
		ShippingCost:      req.ShippingCost,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}

func (h *AdminHandler) ReferralAnalytics(c echo.Context) error {
	analytics, err := h.referralUseCase.Analytics(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, analytics)
}

func (h *AdminHandler) UserReferralDetails(c echo.Context) error {
	details, err := h.referralUseCase.UserDetails(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, details)
}

func (h *AdminHandler) RecentAuditLogs(c echo.Context) error {
	limit := audit.DefaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return response.Error(c, errors.BadRequest("limit must be a positive integer", err))
		}
		limit = n
	}

	return response.Success(c, h.auditLogger.GetRecentLogs(limit))
}

func (h *AdminHandler) SearchAuditLogs(c echo.Context) error {
	filter := audit.Filter{
		Action: c.QueryParam("action"),
		UserID: c.QueryParam("user_id"),
		IP:     c.QueryParam("ip"),
	}

	var err error
	if filter.StartDate, err = parseTimeParam(c, "start"); err != nil {
		return response.Error(c, err)
	}
	if filter.EndDate, err = parseTimeParam(c, "end"); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, h.auditLogger.SearchLogs(filter))
}

func parseTimeParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.BadRequest(name+" must be an RFC3339 timestamp", err)
	}
	return &t, nil
}
