package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
)

func SetupUserRouter(v1 *echo.Group, authMiddleware *middleware.AuthMiddleware, accessMiddleware *middleware.AccessMiddleware) {
	userHandler := handler.GetUserHandler()

	users := v1.Group("/users", authMiddleware.RequireAuth)
	users.GET("/me", userHandler.GetMe)
	users.PUT("/me", userHandler.UpdateMe, accessMiddleware.PreventPrivilegeEscalation)
}
