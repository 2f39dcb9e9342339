package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
)

func SetupOrderRouter(v1 *echo.Group, authMiddleware *middleware.AuthMiddleware, accessMiddleware *middleware.AccessMiddleware) {
	orderHandler := handler.GetOrderHandler()

	orders := v1.Group("/orders", authMiddleware.RequireAuth)
	orders.POST("", orderHandler.Checkout)
	orders.GET("", orderHandler.ListMyOrders)
	orders.GET("/:id", orderHandler.GetOrder, accessMiddleware.RequireOwnership(orderHandler.OrderOwner))
}
