package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Params holds pagination parameters extracted from a request query string.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// Default returns the default pagination parameters.
func Default() Params {
	return Params{Page: defaultPage, Limit: defaultLimit}
}

// FromRequest extracts `page` and `limit` query parameters. Out-of-range or
// malformed values fall back to defaults; limit is clamped to 100 to bound
// response cost.
func FromRequest(r *http.Request) Params {
	p := Default()

	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			p.Page = page
		}
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			p.Limit = limit
		}
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// TotalPages returns the number of pages needed for the given total count.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit > 0 {
		pages++
	}
	return pages
}
