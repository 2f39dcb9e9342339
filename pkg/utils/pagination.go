package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is a 1-based page request.
type Pagination struct {
	Page     int
	PageSize int
}

// PaginationFromQuery reads ?page= and ?pageSize= (or the older ?limit=).
// Missing or out-of-range values fall back to page 1 and DefaultPageSize.
func PaginationFromQuery(c echo.Context) Pagination {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	raw := c.QueryParam("pageSize")
	if raw == "" {
		raw = c.QueryParam("limit")
	}
	size, _ := strconv.Atoi(raw)
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}

	return Pagination{Page: page, PageSize: size}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages rounds up; an empty result has zero pages.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
