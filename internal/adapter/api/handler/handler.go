package handler

import (
	"marketplace/internal/usecase"
)

var (
	authHandler     *AuthHandler
	userHandler     *UserHandler
	referralHandler *ReferralHandler
	categoryHandler *CategoryHandler
	productHandler  *ProductHandler
	cartHandler     *CartHandler
	orderHandler    *OrderHandler
	reviewHandler   *ReviewHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	referralUseCase *usecase.ReferralUseCase,
	categoryUseCase *usecase.CategoryUseCase,
	productUseCase *usecase.ProductUseCase,
	cartUseCase *usecase.CartUseCase,
	orderUseCase *usecase.OrderUseCase,
	reviewUseCase *usecase.ReviewUseCase,
) {
	authHandler = NewAuthHandler(authUseCase)
	userHandler = NewUserHandler(userUseCase)
	referralHandler = NewReferralHandler(referralUseCase)
	categoryHandler = NewCategoryHandler(categoryUseCase)
	productHandler = NewProductHandler(productUseCase)
	cartHandler = NewCartHandler(cartUseCase)
	orderHandler = NewOrderHandler(orderUseCase)
	reviewHandler = NewReviewHandler(reviewUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetReferralHandler() *ReferralHandler {
	return referralHandler
}

func GetCategoryHandler() *CategoryHandler {
	return categoryHandler
}

func GetProductHandler() *ProductHandler {
	return productHandler
}

func GetCartHandler() *CartHandler {
	return cartHandler
}

func GetOrderHandler() *OrderHandler {
	return orderHandler
}

func GetReviewHandler() *ReviewHandler {
	return reviewHandler
}
