package persistence

import (
	"github.com/clinicore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// applyPagination applies page/page-size windowing to the query
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// applyOrdering applies the requested ordering, falling back to the given
// default clause. Column names must already be checked against the entity's
// sort allow-list; this only normalizes direction.
func applyOrdering(query *gorm.DB, filter shared.Filter, defaultOrder string) *gorm.DB {
	if filter.OrderBy == "" {
		return query.Order(defaultOrder)
	}
	return query.Order(filter.OrderBy + " " + ValidateSortOrder(filter.OrderDir))
}

// applyListing applies ordering then pagination in one step
func applyListing(query *gorm.DB, filter shared.Filter, defaultOrder string) *gorm.DB {
	return applyPagination(applyOrdering(query, filter, defaultOrder), filter)
}
