// Package pagination reads page/limit query parameters for list endpoints.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Bounds for admin and request lists. Request lists are unpaged unless the
// client asks for a page, see ParseOptional.
const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 200
)

// Params is a resolved page window.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse always returns a window, falling back to the defaults for missing
// or unusable values.
func Parse(c *gin.Context) Params {
	page := queryInt(c, "page", DefaultPage)
	limit := queryInt(c, "limit", DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// ParseOptional returns a window only when page or limit is present in the
// query. ok is false for a request that wants the whole list.
func ParseOptional(c *gin.Context) (p Params, ok bool) {
	_, hasPage := c.GetQuery("page")
	_, hasLimit := c.GetQuery("limit")
	if !hasPage && !hasLimit {
		return Params{}, false
	}
	return Parse(c), true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
