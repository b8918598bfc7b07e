package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/grovemarket/search-service/internal/domain"
	"github.com/grovemarket/search-service/internal/engine"
)

// Engine is the Elasticsearch-backed SearchEngine implementation.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// esSearchResponse decodes search responses, including the brand facet.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.IndexDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Brands struct {
			Buckets []struct {
				Key string `json:"key"`
			} `json:"buckets"`
		} `json:"brands"`
	} `json:"aggregations"`
}

// esBulkResponse decodes bulk responses for per-item error checking.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID    string `json:"_id"`
			Error struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse decodes Elasticsearch error bodies.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// New creates an engine connected to the given URL. If indexName is empty,
// DefaultIndexName is used. The connection is created once and shared across
// requests; the index itself is created lazily by Init.
func New(esURL, indexName string, logger *slog.Logger) (*Engine, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	return &Engine{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}, nil
}

// unavailable wraps a transport-level failure so callers can detect it with
// errors.Is(err, engine.ErrUnavailable) and fall back.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, engine.ErrUnavailable, err)
}

// decodeError renders an Elasticsearch error body into a Go error.
func decodeError(op string, body interface{ Decode(any) error }, status string) error {
	var errResp esErrorResponse
	if decErr := body.Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, status)
}

// Ping checks whether the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return unavailable("elasticsearch ping", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// Init creates the products index with its mapping if it does not already
// exist. Safe to call repeatedly.
func (e *Engine) Init(ctx context.Context) error {
	res, err := e.client.Indices.Exists(
		[]string{e.indexName},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return unavailable("check index exists", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 200 {
		e.logger.Debug("index already exists", "index", e.indexName)
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping())),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return unavailable("create index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return decodeError("create index", json.NewDecoder(res.Body), res.Status())
	}

	e.logger.Info("index created", "index", e.indexName)
	return nil
}

// Upsert replaces the document stored under doc.ID.
func (e *Engine) Upsert(ctx context.Context, doc *domain.IndexDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("upsert document: marshal: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(doc.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return unavailable("upsert document", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return decodeError("upsert document", json.NewDecoder(res.Body), res.Status())
	}

	e.logger.Debug("document upserted", "id", doc.ID)
	return nil
}

// Delete removes a document. A 404 is treated as success.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return unavailable("delete document", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return decodeError("delete document", json.NewDecoder(res.Body), res.Status())
	}

	e.logger.Debug("document deleted", "id", id)
	return nil
}

// BulkUpsert writes documents in fixed-size batches via the bulk NDJSON API.
// A failing batch is logged with its index and skipped; the remaining batches
// still run, so a full reindex survives one bad batch.
func (e *Engine) BulkUpsert(ctx context.Context, docs []domain.IndexDocument) (*engine.BulkReport, error) {
	report := &engine.BulkReport{}
	if len(docs) == 0 {
		return report, nil
	}

	for start := 0; start < len(docs); start += engine.BulkBatchSize {
		end := start + engine.BulkBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]
		report.Batches++

		if err := e.bulkBatch(ctx, batch); err != nil {
			report.FailedBatches++
			e.logger.Error("bulk batch failed",
				"batch", report.Batches,
				"size", len(batch),
				"error", err,
			)
			continue
		}
		report.Indexed += len(batch)
	}

	return report, nil
}

func (e *Engine) bulkBatch(ctx context.Context, docs []domain.IndexDocument) error {
	var buf bytes.Buffer

	for i := range docs {
		action := map[string]any{
			"index": map[string]any{
				"_index": e.indexName,
				"_id":    docs[i].ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("encode bulk action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(docs[i]); err != nil {
			return fmt.Errorf("encode bulk document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return unavailable("bulk upsert", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return decodeError("bulk upsert", json.NewDecoder(res.Body), res.Status())
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("bulk upsert: decode response: %w", err)
	}

	if bulkResp.Errors {
		var msgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s",
					item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("bulk upsert: item errors: %s", strings.Join(msgs, "; "))
	}

	return nil
}

// Search runs the query DSL built from q and decodes hits plus the brand
// facet. Facets reflect the filtered result set.
func (e *Engine) Search(ctx context.Context, q *domain.SearchQuery) (*domain.SearchResult, error) {
	body := buildSearchBody(q)

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithTrackTotalHits(true),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, unavailable("search", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, decodeError("search", json.NewDecoder(res.Body), res.Status())
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	products := make([]domain.IndexDocument, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		products = append(products, hit.Source)
	}

	brands := make([]string, 0, len(esResp.Aggregations.Brands.Buckets))
	for _, bucket := range esResp.Aggregations.Brands.Buckets {
		brands = append(brands, bucket.Key)
	}

	return &domain.SearchResult{
		Products: products,
		Total:    esResp.Hits.Total.Value,
		Page:     q.Page,
		PerPage:  q.PerPage,
		Facets:   domain.Facets{Brands: brands},
	}, nil
}

// buildSearchBody renders the search query DSL.
func buildSearchBody(q *domain.SearchQuery) map[string]any {
	boolQuery := map[string]any{
		"must": []any{
			map[string]any{
				"multi_match": map[string]any{
					"query":         q.Term,
					"fields":        []string{"name^3", "name.autocomplete^2", "description", "brand"},
					"type":          "best_fields",
					"fuzziness":     "AUTO",
					"prefix_length": 1,
				},
			},
		},
	}
	if filters := buildFilters(q); len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": boolQuery,
		},
		"from": (q.Page - 1) * q.PerPage,
		"size": q.PerPage,
		"aggs": map[string]any{
			"brands": map[string]any{
				"terms": map[string]any{
					"field": "brand.keyword",
					"size":  brandFacetSize,
				},
			},
		},
	}

	if sortClause := buildSort(q.SortBy); sortClause != nil {
		body["sort"] = sortClause
	}

	return body
}

// brandFacetSize bounds the brand facet block.
const brandFacetSize = 50

func buildFilters(q *domain.SearchQuery) []any {
	var filters []any

	if q.CategoryID != nil {
		filters = append(filters, map[string]any{
			"term": map[string]any{"category_id": *q.CategoryID},
		})
	}

	if q.Brand != nil {
		filters = append(filters, map[string]any{
			"term": map[string]any{"brand.keyword": *q.Brand},
		})
	}

	if q.MinPrice != nil || q.MaxPrice != nil {
		rangeFilter := map[string]any{}
		if q.MinPrice != nil {
			rangeFilter["gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			rangeFilter["lte"] = *q.MaxPrice
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"price": rangeFilter},
		})
	}

	return filters
}

func buildSort(sortBy string) []any {
	switch sortBy {
	case domain.SortPriceAsc:
		return []any{map[string]any{"price": "asc"}}
	case domain.SortPriceDesc:
		return []any{map[string]any{"price": "desc"}}
	case domain.SortNewest:
		return []any{map[string]any{"created_at": "desc"}}
	case domain.SortRatingDesc:
		return []any{
			map[string]any{"rating": "desc"},
			map[string]any{"review_count": "desc"},
		}
	default:
		// Relevance: default scoring.
		return []any{map[string]any{"_score": "desc"}}
	}
}

// Candidates returns up to size documents matching term against name, brand,
// or category name, ranked by rating. The bounded size keeps suggestion
// latency independent of catalog size.
func (e *Engine) Candidates(ctx context.Context, term string, size int) ([]domain.IndexDocument, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  term,
				"fields": []string{"name", "name.autocomplete", "brand", "category_name"},
			},
		},
		"size": size,
		"sort": []any{
			map[string]any{"rating": "desc"},
			map[string]any{"review_count": "desc"},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("candidates: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, unavailable("candidates", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, decodeError("candidates", json.NewDecoder(res.Body), res.Status())
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("candidates: decode response: %w", err)
	}

	docs := make([]domain.IndexDocument, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

// DeleteIndex drops the whole index. Intended for tests and administrative
// rebuilds; a 404 is treated as success.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return unavailable("delete index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return decodeError("delete index", json.NewDecoder(res.Body), res.Status())
	}

	e.logger.Info("index deleted", "index", e.indexName)
	return nil
}
