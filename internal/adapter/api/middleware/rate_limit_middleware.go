package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"marketplace/internal/infrastructure/ratelimit"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimit counts requests per client IP and request path in fixed windows. scope
// keeps separately configured limits on the same route from sharing a counter.
// A store failure lets the request through.
func RateLimit(limiter ratelimit.Limiter, scope string, max int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := scope + ":" + c.RealIP() + "|" + c.Request().URL.Path

			result, err := limiter.Allow(c.Request().Context(), key, max, window)
			if err != nil {
				logger.Warn("rate limiter unavailable for %s: %v", key, err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(result.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int(time.Until(result.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set(echo.HeaderRetryAfter, strconv.Itoa(retryAfter))
				return errors.TooManyRequests("Too many requests. Please try again later.")
			}

			return next(c)
		}
	}
}
