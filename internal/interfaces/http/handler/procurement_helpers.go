package handler

import (
	"strconv"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// parseListFilter reads page/page_size/order_by/order_dir/search query
// params into a shared.Filter, the way procurement's repositories expect
// it. shared.Filter carries no binding tags of its own since it is a
// domain type, not a wire DTO, so this is parsed by hand rather than via
// ShouldBindQuery.
func parseListFilter(c *gin.Context) shared.Filter {
	filter := shared.DefaultFilter()
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil && size > 0 && size <= 100 {
		filter.PageSize = size
	}
	if orderBy := c.Query("order_by"); orderBy != "" {
		filter.OrderBy = orderBy
	}
	if orderDir := c.Query("order_dir"); orderDir != "" {
		filter.OrderDir = orderDir
	}
	filter.Search = c.Query("search")
	return filter
}
