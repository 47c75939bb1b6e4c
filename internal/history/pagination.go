// internal/history/pagination.go
package history

import "repo-insights/internal/model"

// Paginate derives the page summary for total items split into pages of limit.
func Paginate(total, page, limit int) model.Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return model.Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}
