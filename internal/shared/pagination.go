package shared

import (
	"math"
	"net/url"
	"strconv"
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset is the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PageFromQuery reads page/per_page query parameters, clamping per_page to a
// sane upper bound.
func PageFromQuery(q url.Values) (page, perPage int) {
	page, _ = strconv.Atoi(q.Get("page"))
	perPage, _ = strconv.Atoi(q.Get("per_page"))
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
