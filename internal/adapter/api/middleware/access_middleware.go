package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"marketplace/internal/domain/entity"
	"marketplace/internal/infrastructure/audit"
	"marketplace/pkg/errors"
)

// OwnerResolver returns the owning user id of the resource named by id.
type OwnerResolver func(ctx context.Context, id string) (string, error)

type AccessMiddleware struct {
	audit audit.Logger
}

func NewAccessMiddleware(auditLogger audit.Logger) *AccessMiddleware {
	return &AccessMiddleware{audit: auditLogger}
}

func (m *AccessMiddleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return errors.Unauthorized("Authentication required", nil)
			}

			if !user.HasRole(roles...) {
				entry := requestEntry(c, audit.ActionUnauthorizedRole)
				entry.Details = map[string]interface{}{
					"userRole":      user.Role,
					"requiredRoles": roles,
				}
				m.audit.Log(entry)
				return errors.Forbidden("Insufficient permissions", nil)
			}

			return next(c)
		}
	}
}

// RequireOwnership compares the owner of the resource in the :id path
// parameter with the principal. Admins always pass.
func (m *AccessMiddleware) RequireOwnership(resolve OwnerResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return errors.Unauthorized("Authentication required", nil)
			}

			ownerID, err := resolve(c.Request().Context(), c.Param("id"))
			if err != nil {
				if errors.Is(err, errors.CodeNotFound) {
					return err
				}
				return errors.Internal("Unable to verify resource ownership", err)
			}
			if ownerID == "" {
				return errors.NotFound("Resource", nil)
			}

			if ownerID != user.ID && !user.IsAdmin() {
				entry := requestEntry(c, audit.ActionUnauthorizedResource)
				entry.Details = map[string]interface{}{"resourceOwnerId": ownerID}
				m.audit.Log(entry)
				return errors.Forbidden("You can only access your own resources", nil)
			}

			return next(c)
		}
	}
}

// PreventPrivilegeEscalation drops a role field sent by a non-admin and
// refuses an admin changing their own role away from admin.
func (m *AccessMiddleware) PreventPrivilegeEscalation(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			return errors.Unauthorized("Authentication required", nil)
		}

		body, fields, err := readJSONObject(c)
		if err != nil || fields == nil {
			return next(c)
		}

		rawRole, ok := fields["role"]
		if !ok {
			return next(c)
		}
		targetRole, _ := rawRole.(string)

		if !user.IsAdmin() {
			delete(fields, "role")
			entry := requestEntry(c, audit.ActionPrivilegeEscalation)
			entry.Details = map[string]interface{}{
				"currentRole": user.Role,
				"targetRole":  rawRole,
			}
			m.audit.Log(entry)

			stripped, err := json.Marshal(fields)
			if err != nil {
				return errors.Internal("Failed to process request body", err)
			}
			body = stripped
		} else if c.Param("id") == user.ID && targetRole != entity.RoleAdmin {
			entry := requestEntry(c, audit.ActionAdminSelfDemotion)
			entry.Details = map[string]interface{}{
				"currentRole": user.Role,
				"targetRole":  rawRole,
			}
			m.audit.Log(entry)
			return errors.InvalidOperation("Cannot demote yourself from admin role")
		}

		replaceBody(c, body)
		return next(c)
	}
}

// LogSensitiveOperation records action after a 2xx response.
func (m *AccessMiddleware) LogSensitiveOperation(action string) echo.MiddlewareFunc {
	return echomw.BodyDump(func(c echo.Context, reqBody, _ []byte) {
		status := c.Response().Status
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}

		entry := requestEntry(c, action)
		entry.ResponseStatus = status
		if len(reqBody) > 0 {
			var parsed interface{}
			if json.Unmarshal(reqBody, &parsed) == nil {
				entry.RequestBody = parsed
			}
		}
		m.audit.Log(entry)
	})
}

// readJSONObject reads the body and, when it is a JSON object, decodes it.
// The body is always restored for the next reader.
func readJSONObject(c echo.Context) ([]byte, map[string]interface{}, error) {
	req := c.Request()
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil, nil
	}

	body, err := io.ReadAll(req.Body)
	replaceBody(c, body)
	if err != nil {
		return nil, nil, err
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return body, nil, nil
	}
	return body, fields, nil
}

func replaceBody(c echo.Context, body []byte) {
	req := c.Request()
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
}
