package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
	"marketplace/internal/infrastructure/audit"
)

func SetupPaymentRouter(e *echo.Echo, accessMiddleware *middleware.AccessMiddleware, limits RateLimits) {
	paymentHandler := handler.GetPaymentHandler()

	payments := e.Group("/v1/payments", limits.general())
	payments.POST("/webhook", paymentHandler.Webhook, accessMiddleware.LogSensitiveOperation(audit.ActionPaymentWebhook))
}
