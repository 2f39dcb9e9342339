package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
)

func SetupAuthRouter(v1 *echo.Group, limits RateLimits) {
	authHandler := handler.GetAuthHandler()

	auth := v1.Group("/auth", limits.auth())
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
}
