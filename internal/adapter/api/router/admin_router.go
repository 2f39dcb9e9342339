package router

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
	"marketplace/internal/domain/entity"
	"marketplace/internal/infrastructure/audit"
)

func SetupAdminRouter(v1 *echo.Group, authMiddleware *middleware.AuthMiddleware, accessMiddleware *middleware.AccessMiddleware) {
	adminHandler := handler.GetAdminHandler()
	categoryHandler := handler.GetCategoryHandler()
	logged := accessMiddleware.LogSensitiveOperation

	admin := v1.Group("/admin",
		authMiddleware.RequireAuth,
		accessMiddleware.RequireRole(entity.RoleAdmin),
	)

	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:id", adminHandler.UpdateUser,
		accessMiddleware.PreventPrivilegeEscalation,
		logged(audit.ActionAdminUpdateUser),
	)
	admin.DELETE("/users/:id", adminHandler.DeleteUser, logged(audit.ActionAdminDeleteUser))

	admin.GET("/products", adminHandler.ListProducts)
	admin.GET("/products/pending", adminHandler.ListPendingProducts)
	admin.POST("/products/:id/approve", adminHandler.ApproveProduct, logged(audit.ActionAdminApproveProduct))
	admin.POST("/products/:id/reject", adminHandler.RejectProduct, logged(audit.ActionAdminRejectProduct))

	admin.POST("/categories", categoryHandler.CreateCategory)

	admin.GET("/orders", adminHandler.ListOrders)
	admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus, logged(audit.ActionAdminUpdateOrder))

	admin.GET("/referral/analytics", adminHandler.ReferralAnalytics)
	admin.GET("/referral/users/:userId", adminHandler.UserReferralDetails)

	admin.GET("/audit-logs", adminHandler.RecentAuditLogs)
	admin.GET("/audit-logs/search", adminHandler.SearchAuditLogs)
}
