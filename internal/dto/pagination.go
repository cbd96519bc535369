package dto

import "strconv"

// PageSize is fixed for every paginated listing.
const PageSize = 20

// Pagination is embedded in every list response.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// ParsePage reads a 1-indexed page number from a query value. Anything that is
// not a positive integer means the first page.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// NewPagination clamps requested into [1, total pages]. An empty result still
// has one (empty) page.
func NewPagination(requested int, total int64) Pagination {
	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	page := requested
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Pagination{Total: total, Page: page, Limit: PageSize, TotalPages: totalPages}
}

// Offset is the number of rows preceding the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
