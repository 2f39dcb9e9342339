package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
)

func SetupCategoryRouter(v1 *echo.Group) {
	categoryHandler := handler.GetCategoryHandler()

	categories := v1.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id/products", categoryHandler.ListCategoryProducts)
}
