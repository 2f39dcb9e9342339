package router

import (
	"time"

	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/middleware"
	"marketplace/internal/infrastructure/ratelimit"
)

type RateLimits struct {
	Limiter    ratelimit.Limiter
	Max        int
	Window     time.Duration
	AuthMax    int
	AuthWindow time.Duration
}

func (l RateLimits) general() echo.MiddlewareFunc {
	return middleware.RateLimit(l.Limiter, "api", l.Max, l.Window)
}

func (l RateLimits) auth() echo.MiddlewareFunc {
	return middleware.RateLimit(l.Limiter, "auth", l.AuthMax, l.AuthWindow)
}

// Setup registers every route. JSON routes under /v1 are rate limited,
// sanitized and carry the principal when a token is sent. The payment webhook
// and websocket routes sit outside that group: the webhook signature covers
// the raw body, and the websocket reads its token from the query string.
func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, accessMiddleware *middleware.AccessMiddleware, limits RateLimits) {
	v1 := e.Group("/v1", limits.general(), middleware.Sanitize(), authMiddleware.Authenticate)

	SetupAuthRouter(v1, limits)
	SetupUserRouter(v1, authMiddleware, accessMiddleware)
	SetupReferralRouter(v1, authMiddleware)
	SetupCategoryRouter(v1)
	SetupProductRouter(v1, authMiddleware, accessMiddleware)
	SetupReviewRouter(v1, authMiddleware)
	SetupFileRouter(v1, authMiddleware, accessMiddleware)
	SetupCartRouter(v1, authMiddleware)
	SetupOrderRouter(v1, authMiddleware, accessMiddleware)
	SetupSellerRouter(v1, authMiddleware, accessMiddleware)
	SetupAdminRouter(v1, authMiddleware, accessMiddleware)

	SetupPaymentRouter(e, accessMiddleware, limits)
	SetupWebSocketRouter(e, authMiddleware, limits)
	SetupHealthRouter(e)
}
