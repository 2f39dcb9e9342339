package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
)

func SetupReviewRouter(v1 *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	reviewHandler := handler.GetReviewHandler()

	v1.GET("/products/:id/reviews", reviewHandler.ListProductReviews)
	v1.POST("/products/:id/reviews", reviewHandler.CreateReview, authMiddleware.RequireAuth)
}
