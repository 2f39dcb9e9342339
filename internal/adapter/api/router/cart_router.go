package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
)

func SetupCartRouter(v1 *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	cartHandler := handler.GetCartHandler()

	cart := v1.Group("/cart", authMiddleware.RequireAuth)
	cart.GET("", cartHandler.GetCart)
	cart.POST("", cartHandler.AddToCart)
	cart.DELETE("", cartHandler.ClearCart)
	cart.DELETE("/:productId", cartHandler.RemoveFromCart)
}
