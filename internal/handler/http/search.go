// Package http exposes the search, suggestion, and admin endpoints.
package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/grovemarket/search-service/pkg/httputil"
	"github.com/grovemarket/search-service/pkg/pagination"

	"github.com/grovemarket/search-service/internal/domain"
	"github.com/grovemarket/search-service/internal/service"
)

// searchResponse is the wire shape of GET /search. It stays identical
// whether the primary or the fallback path produced the result.
type searchResponse struct {
	Products   []domain.IndexDocument `json:"products"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"totalPages"`
	Filters    filterBlock            `json:"filters"`
}

type filterBlock struct {
	Brands []string `json:"brands"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// SearchHandler serves the public read endpoints.
type SearchHandler struct {
	query   *service.QueryService
	suggest *service.SuggestionService
	logger  *slog.Logger
}

func NewSearchHandler(query *service.QueryService, suggest *service.SuggestionService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		query:   query,
		suggest: suggest,
		logger:  logger,
	}
}

// Search handles GET /search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.query.Search(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, searchResponse{
		Products:   result.Products,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.PerPage,
		TotalPages: result.TotalPages,
		Filters:    filterBlock{Brands: result.Facets.Brands},
	})
}

// Suggestions handles GET /search/suggestions.
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteValidationError(w, &fieldError{field: "limit", msg: "must be an integer"})
			return
		}
		limit = parsed
	}

	suggestions, err := h.suggest.Suggest(r.Context(), term, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, suggestionsResponse{Suggestions: suggestions})
}

// parseSearchQuery maps query parameters onto a SearchQuery. Only malformed
// numeric values are caller errors; everything else is normalized downstream.
func parseSearchQuery(r *http.Request) (*domain.SearchQuery, error) {
	params := r.URL.Query()

	q := &domain.SearchQuery{
		Term:   params.Get("q"),
		SortBy: params.Get("sort"),
	}

	if v := strings.TrimSpace(params.Get("category")); v != "" {
		q.CategoryID = &v
	}
	if v := strings.TrimSpace(params.Get("brand")); v != "" {
		q.Brand = &v
	}

	var err error
	if q.MinPrice, err = parsePrice(params.Get("minPrice"), "minPrice"); err != nil {
		return nil, err
	}
	if q.MaxPrice, err = parsePrice(params.Get("maxPrice"), "maxPrice"); err != nil {
		return nil, err
	}

	p := pagination.FromRequest(r)
	q.Page = p.Page
	q.PerPage = p.Limit

	return q, nil
}

func parsePrice(raw, field string) (*float64, error) {
	if raw = strings.TrimSpace(raw); raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &fieldError{field: field, msg: "must be a number"}
	}
	if value < 0 {
		return nil, &fieldError{field: field, msg: "must not be negative"}
	}
	return &value, nil
}

// fieldError is a single-field validation failure.
type fieldError struct {
	field string
	msg   string
}

func (e *fieldError) Error() string {
	return e.field + " " + e.msg
}
