package common

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage     = 0
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams holds a zero-based page and a page size
type PaginationParams struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// NewPaginationParams clamps page to >= 0 and size to [1, MaxPageSize]
func NewPaginationParams(page, size int) PaginationParams {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 1
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PaginationParams{Page: page, Size: size}
}

// ExtractPaginationParams reads ?page= and ?size= from the request. Missing or
// malformed values fall back to the defaults; out of range values are clamped.
func ExtractPaginationParams(r *http.Request) PaginationParams {
	page, size := DefaultPage, DefaultPageSize

	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			page = p
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			size = s
		}
	}

	return NewPaginationParams(page, size)
}

// Offset is the index of the first item on the page
func (p PaginationParams) Offset() int {
	return p.Page * p.Size
}

// Bounds returns the [start, end) slice bounds of the page within total items
func (p PaginationParams) Bounds(total int) (int, int) {
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return start, end
}

// PaginationInfo describes a page of results
type PaginationInfo struct {
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// CalculateTotalPages calculates total number of pages
func CalculateTotalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	pages := total / size
	if total%size > 0 {
		pages++
	}
	return pages
}

// BuildPaginationMeta builds pagination metadata for a zero-based page
func BuildPaginationMeta(p PaginationParams, total int) *PaginationInfo {
	totalPages := CalculateTotalPages(total, p.Size)
	return &PaginationInfo{
		Page:       p.Page,
		Size:       p.Size,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page+1 < totalPages,
		HasPrev:    p.Page > 0,
	}
}
