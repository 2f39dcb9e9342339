package handler

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/adapter/api/middleware"
	"marketplace/internal/domain/entity"
	"marketplace/internal/usecase"
	"marketplace/pkg/errors"
	"marketplace/pkg/utils"
)

func pageParams(c echo.Context) (usecase.Page, utils.Pagination) {
	params := utils.PaginationFromQuery(c)
	return usecase.Page{Limit: params.PageSize, Offset: params.Offset()}, params
}

// principal returns the authenticated user. Routes that call it sit behind
// RequireAuth, so a missing user is reported rather than dereferenced.
func principal(c echo.Context) (*entity.User, error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	return user, nil
}

// bindAndValidate binds path, query and body parameters into req and runs the
// validator over it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}
