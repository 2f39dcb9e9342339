package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
	"marketplace/internal/domain/entity"
)

func SetupFileRouter(v1 *echo.Group, authMiddleware *middleware.AuthMiddleware, accessMiddleware *middleware.AccessMiddleware) {
	fileHandler := handler.GetFileHandler()

	uploads := v1.Group("/uploads",
		echomw.BodyLimit("51M"),
		authMiddleware.RequireAuth,
		accessMiddleware.RequireRole(entity.RoleSeller, entity.RoleAdmin),
	)
	uploads.POST("", fileHandler.UploadFile)
}
