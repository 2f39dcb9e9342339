package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
)

func SetupReferralRouter(v1 *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	referralHandler := handler.GetReferralHandler()

	referral := v1.Group("/referral")
	referral.GET("/validate/:code", referralHandler.ValidateCode)

	referral.GET("/stats", referralHandler.GetStats, authMiddleware.RequireAuth)
	referral.GET("/my-referrals", referralHandler.MyReferrals, authMiddleware.RequireAuth)
	referral.GET("/link", referralHandler.GetLink, authMiddleware.RequireAuth)
}
