package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"marketplace/internal/domain/entity"
	"marketplace/internal/infrastructure/audit"
	"marketplace/internal/infrastructure/auth"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

const (
	ContextKeyUID  = "uid"
	ContextKeyUser = "user"
)

type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, identity *auth.Identity) (*entity.User, error)
}

type AuthMiddleware struct {
	verifier   auth.TokenVerifier
	principals PrincipalResolver
	audit      audit.Logger
}

func NewAuthMiddleware(verifier auth.TokenVerifier, principals PrincipalResolver, auditLogger audit.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:   verifier,
		principals: principals,
		audit:      auditLogger,
	}
}

// Authenticate attaches the principal when a valid Bearer token is present.
// It never rejects the request; RequireAuth is the gate.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if token == "" {
			return next(c)
		}

		ctx := c.Request().Context()
		identity, err := m.verifier.Verify(ctx, token)
		if err != nil {
			logger.Debug("token rejected: %v", err)
			return next(c)
		}

		user, err := m.principals.ResolvePrincipal(ctx, identity)
		if err != nil {
			logger.Debug("principal lookup failed: %v", err)
			return next(c)
		}

		c.Set(ContextKeyUID, user.ID)
		c.Set(ContextKeyUser, user)
		return next(c)
	}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			m.audit.Log(requestEntry(c, audit.ActionUnauthorizedAccess))
			return errors.Unauthorized("Authentication required", nil)
		}
		return next(c)
	}
}

// WebSocketAuth accepts the token as a query parameter since browsers cannot
// set headers on the upgrade request.
func (m *AuthMiddleware) WebSocketAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := c.QueryParam("token"); token != "" && c.Request().Header.Get(echo.HeaderAuthorization) == "" {
			c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}
		return m.Authenticate(next)(c)
	}
}

// CurrentUser returns the principal attached by Authenticate, or nil.
func CurrentUser(c echo.Context) *entity.User {
	user, _ := c.Get(ContextKeyUser).(*entity.User)
	return user
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func requestEntry(c echo.Context, action string) audit.Entry {
	req := c.Request()
	entry := audit.Entry{
		Action:    action,
		IP:        c.RealIP(),
		UserAgent: req.UserAgent(),
		Endpoint:  req.URL.Path,
		Method:    req.Method,
	}
	if entry.UserAgent == "" {
		entry.UserAgent = "unknown"
	}
	if user := CurrentUser(c); user != nil {
		entry.UserID = user.ID
	}
	return entry
}
