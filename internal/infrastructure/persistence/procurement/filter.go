package procurement

import (
	"strings"

	"github.com/erp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// allowedProcurementFilterColumns is the allowlist of Filters map keys that
// may be turned into a WHERE clause. Spec.md §4.2 requires parameterized
// queries only, never string interpolation of caller-supplied values —
// column names (unlike values) cannot be parameterized, so they are
// restricted to this fixed set instead.
var allowedProcurementFilterColumns = map[string]bool{
	"department_id": true,
	"vendor_id":     true,
	"status":        true,
	"fiscal_year":   true,
	"quarter":       true,
	"requester_id":  true,
}

// applyProcurementFilter applies shared.Filter's generic where-clauses,
// ordering and pagination the way the teacher's inventory repository does
// for its own filter application, generalized across procurement tables.
func applyProcurementFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		if !allowedProcurementFilterColumns[key] {
			continue
		}
		query = query.Where(key+" = ?", value)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}
