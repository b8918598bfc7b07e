package domain

import (
	"time"
)

// IndexDocument is the flat, denormalized projection of a CatalogItem stored
// in the search index. The category name is inlined so the engine can facet
// and sort on it without joins; money and rating are plain numerics. The
// document ID equals the catalog item ID and is the upsert/delete key.
type IndexDocument struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Brand        string    `json:"brand,omitempty"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Price        float64   `json:"price"`
	Rating       float64   `json:"rating"`
	ReviewCount  int       `json:"review_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sort keys accepted by the search endpoint.
const (
	SortRelevance  = "relevance"
	SortNewest     = "newest"
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortRatingDesc = "rating_desc"
)

// NormalizeSort maps unknown sort keys to relevance rather than failing the
// request.
func NormalizeSort(sort string) string {
	switch sort {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRatingDesc:
		return sort
	default:
		return SortRelevance
	}
}

// SearchQuery holds the parameters of one search request. It is
// request-scoped and never persisted.
type SearchQuery struct {
	Term       string   `json:"term"`
	CategoryID *string  `json:"category_id,omitempty"`
	Brand      *string  `json:"brand,omitempty"`
	MinPrice   *float64 `json:"min_price,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	SortBy     string   `json:"sort_by"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
}

// Facets summarizes the filtered result set for filter UIs. Under the
// fallback path Brands is approximated from a distinct-value query and
// Approximate is set.
type Facets struct {
	Brands      []string `json:"brands"`
	Approximate bool     `json:"-"`
}

// SearchResult is a page of matching documents plus facet summaries. The
// shape is identical whether the primary or the fallback path served it.
type SearchResult struct {
	Products   []IndexDocument `json:"products"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
	Facets     Facets          `json:"facets"`
}

// EmptyResult returns a well-formed zero-hit result for the given pagination.
func EmptyResult(page, perPage int) *SearchResult {
	return &SearchResult{
		Products: []IndexDocument{},
		Page:     page,
		PerPage:  perPage,
		Facets:   Facets{Brands: []string{}},
	}
}
