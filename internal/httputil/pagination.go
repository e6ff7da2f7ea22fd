package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Pagination is an offset/limit window requested by the client.
type Pagination struct {
	Offset int
	Limit  int
}

// PageInfo describes the window a list response returns.
type PageInfo struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// ParsePagination reads ?offset= and ?limit=. Offset defaults to 0 and limit to
// 50, capped at 100.
func ParsePagination(c *gin.Context) (Pagination, error) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return Pagination{}, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		return Pagination{}, fmt.Errorf("invalid limit parameter: must be between 1 and %d", maxLimit)
	}

	return Pagination{Offset: offset, Limit: limit}, nil
}

// Paginate cuts the requested window out of items. Storage enumerations come
// back sorted, so consecutive pages neither skip nor repeat entries.
func Paginate[T any](items []T, p Pagination) ([]T, PageInfo) {
	info := PageInfo{Offset: p.Offset, Limit: p.Limit, Total: len(items)}
	if p.Offset >= len(items) {
		return []T{}, info
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end], info
}
