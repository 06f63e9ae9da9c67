package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page request
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of rows skipped before the page
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Parse reads page and limit from the query string. Missing or invalid values fall back to
// the defaults and limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	return Params{
		Page:  queryInt(c, "page", DefaultPage, DefaultPage),
		Limit: min(queryInt(c, "limit", DefaultLimit, 1), MaxLimit),
	}
}

func queryInt(c *gin.Context, key string, fallback, lowest int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < lowest {
		return fallback
	}
	return n
}

// TotalPages is the number of pages needed for total rows
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
