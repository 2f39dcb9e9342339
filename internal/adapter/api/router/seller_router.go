package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
	"marketplace/internal/domain/entity"
	"marketplace/internal/infrastructure/audit"
)

func SetupSellerRouter(v1 *echo.Group, authMiddleware *middleware.AuthMiddleware, accessMiddleware *middleware.AccessMiddleware) {
	productHandler := handler.GetProductHandler()
	orderHandler := handler.GetOrderHandler()

	seller := v1.Group("/seller",
		authMiddleware.RequireAuth,
		accessMiddleware.RequireRole(entity.RoleSeller, entity.RoleAdmin),
	)
	seller.GET("/products", productHandler.ListMyProducts)
	seller.GET("/orders", orderHandler.ListSellerOrders)
	seller.PUT("/orders/:id/fulfillment", orderHandler.UpdateFulfillment,
		accessMiddleware.LogSensitiveOperation(audit.ActionSellerFulfillment),
	)
}
