package common

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationParams selects one page of a list
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// ExtractPaginationParams reads ?page= and ?page_size= (or ?limit=) from the
// query string. Missing or invalid values fall back to page 1 of 20 and the
// size is capped at 100.
func ExtractPaginationParams(r *http.Request) PaginationParams {
	query := r.URL.Query()
	params := PaginationParams{Page: 1, PageSize: defaultPageSize}

	if p := positiveInt(query.Get("page")); p > 0 {
		params.Page = p
	}

	size := positiveInt(query.Get("page_size"))
	if size == 0 {
		size = positiveInt(query.Get("limit"))
	}
	if size > 0 {
		params.PageSize = min(size, maxPageSize)
	}
	return params
}

// CalculateTotalPages returns how many pages of pageSize hold total items
func CalculateTotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate returns the page of items selected by p with its metadata. A
// page past the end is empty, never nil.
func Paginate[T any](items []T, p PaginationParams) ([]T, *PaginationInfo) {
	totalPages := CalculateTotalPages(len(items), p.PageSize)
	meta := &PaginationInfo{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      len(items),
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}

	start := (p.Page - 1) * p.PageSize
	if start < 0 || start >= len(items) {
		return []T{}, meta
	}
	return items[start:min(start+p.PageSize, len(items))], meta
}

func positiveInt(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
