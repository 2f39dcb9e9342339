package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
)

func SetupWebSocketRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limits RateLimits) {
	wsHandler := handler.GetWebSocketHandler()

	e.GET("/v1/ws/orders", wsHandler.HandleOrderEvents,
		limits.general(),
		authMiddleware.WebSocketAuth,
		authMiddleware.RequireAuth,
	)
}
