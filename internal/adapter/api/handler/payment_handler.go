package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"marketplace/internal/usecase"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
	"marketplace/pkg/response"
)

const (
	HeaderSignature     = "X-Signature"
	maxWebhookBodyBytes = 1 << 20
)

type PaymentHandler struct {
	orderUseCase *usecase.OrderUseCase
	secret       []byte
}

var paymentHandler *PaymentHandler

func NewPaymentHandler(orderUseCase *usecase.OrderUseCase, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		orderUseCase: orderUseCase,
		secret:       []byte(webhookSecret),
	}
}

func SetupPaymentHandler(orderUseCase *usecase.OrderUseCase, webhookSecret string) {
	paymentHandler = NewPaymentHandler(orderUseCase, webhookSecret)
}

func GetPaymentHandler() *PaymentHandler {
	return paymentHandler
}

type paymentEventRequest struct {
	Type          string `json:"type" validate:"required,oneof=checkout.completed checkout.expired"`
	OrderID       string `json:"order_id" validate:"required,max=36"`
	PaymentMethod string `json:"payment_method" validate:"max=50"`
}

// Webhook applies a signed payment gateway event to its order.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes))
	if err != nil {
		return response.Error(c, errors.BadRequest("Unable to read payload", err))
	}
	c.Request().Body = io.NopCloser(bytes.NewReader(body))

	if !h.validSignature(body, c.Request().Header.Get(HeaderSignature)) {
		logger.Warn("payment webhook with bad signature from %s", c.RealIP())
		return response.Error(c, errors.Unauthorized("Invalid signature", nil))
	}

	var req paymentEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.HandlePaymentEvent(c.Request().Context(), usecase.PaymentEvent{
		Type:          req.Type,
		OrderID:       req.OrderID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return response.Error(c, err)
	}

	logger.Info("payment event %s applied to order %s", req.Type, order.ID)
	return response.Success(c, order)
}

func (h *PaymentHandler) validSignature(body []byte, signature string) bool {
	if len(h.secret) == 0 || signature == "" {
		return false
	}

	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// SignPayload returns the hex signature a gateway sends for body.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
