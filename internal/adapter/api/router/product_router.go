package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
	"marketplace/internal/domain/entity"
)

func SetupProductRouter(v1 *echo.Group, authMiddleware *middleware.AuthMiddleware, accessMiddleware *middleware.AccessMiddleware) {
	productHandler := handler.GetProductHandler()

	products := v1.Group("/products")
	products.GET("", productHandler.ListProducts)
	products.GET("/type/:type", productHandler.ListProducts)
	products.GET("/:id", productHandler.GetProduct)

	products.POST("", productHandler.CreateProduct,
		authMiddleware.RequireAuth,
		accessMiddleware.RequireRole(entity.RoleSeller, entity.RoleAdmin),
	)

	owner := accessMiddleware.RequireOwnership(productHandler.ProductOwner)
	products.PUT("/:id", productHandler.UpdateProduct, authMiddleware.RequireAuth, owner)
	products.DELETE("/:id", productHandler.DeleteProduct, authMiddleware.RequireAuth, owner)
}
