package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/grovemarket/search-service/internal/catalog"
	"github.com/grovemarket/search-service/internal/domain"
	"github.com/grovemarket/search-service/pkg/database"
	apperrors "github.com/grovemarket/search-service/pkg/errors"
)

// Store implements catalog.Store against the marketplace products table.
// Soft deletion is modeled by products.deleted_at; the category name is
// resolved through a join so callers never see bare category IDs.
type Store struct {
	pool database.DBTX
}

// NewStore creates a PostgreSQL-backed catalog store on a shared pool.
func NewStore(pool database.DBTX) *Store {
	return &Store{pool: pool}
}

const itemColumns = `
	p.id, p.name, p.description, COALESCE(p.brand, ''), p.category_id,
	COALESCE(c.name, ''), p.price, p.rating, p.review_count,
	p.deleted_at, p.created_at, p.updated_at`

// FindByID fetches one item with its category, including soft-deleted rows.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, itemColumns)

	row := s.pool.QueryRow(ctx, query, id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("find product by id: %w", err)
	}

	return item, nil
}

// FindMany returns one page of live items matching the filter.
func (s *Store) FindMany(ctx context.Context, f catalog.Filter, p catalog.Page, sortBy string) ([]domain.CatalogItem, error) {
	where, args := buildFilter(f)

	size := p.Size
	if size <= 0 {
		size = 20
	}
	args = append(args, size, p.Offset())

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		itemColumns, where, orderClause(sortBy), len(args)-1, len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CatalogItem, 0, size)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return items, nil
}

// Count returns the number of live items matching the filter.
func (s *Store) Count(ctx context.Context, f catalog.Filter) (int, error) {
	where, args := buildFilter(f)

	query := fmt.Sprintf(`SELECT count(*) FROM products p %s`, where)

	var total int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// DistinctBrands returns the distinct non-empty brands matching the filter.
// This is the lighter aggregate used for approximate facets on the fallback
// path.
func (s *Store) DistinctBrands(ctx context.Context, f catalog.Filter) ([]string, error) {
	where, args := buildFilter(f)
	where += " AND p.brand IS NOT NULL AND p.brand <> ''"

	query := fmt.Sprintf(`SELECT DISTINCT p.brand FROM products p %s ORDER BY p.brand`, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct brands: %w", err)
	}
	defer rows.Close()

	brands := []string{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan brand row: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brand rows: %w", err)
	}

	return brands, nil
}

// buildFilter renders the WHERE clause for live rows matching f.
func buildFilter(f catalog.Filter) (string, []any) {
	conditions := []string{"p.deleted_at IS NULL"}
	var args []any

	if f.Term != "" {
		args = append(args, "%"+f.Term+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(p.name ILIKE $%d OR p.description ILIKE $%d OR p.brand ILIKE $%d)", n, n, n))
	}

	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", len(args)))
	}

	if f.Brand != nil {
		args = append(args, *f.Brand)
		conditions = append(conditions, fmt.Sprintf("p.brand = $%d", len(args)))
	}

	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conditions = append(conditions, fmt.Sprintf("p.price >= $%d", len(args)))
	}

	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("p.price <= $%d", len(args)))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// orderClause maps a sort key to SQL. Relevance is not computable without the
// engine, so it degrades to rating descending, the closest quality proxy.
func orderClause(sortBy string) string {
	switch sortBy {
	case domain.SortNewest:
		return "p.created_at DESC"
	case domain.SortPriceAsc:
		return "p.price ASC"
	case domain.SortPriceDesc:
		return "p.price DESC"
	default:
		return "p.rating DESC, p.review_count DESC"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.CatalogItem, error) {
	var (
		item      domain.CatalogItem
		deletedAt *time.Time
	)

	if err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Brand,
		&item.CategoryID,
		&item.CategoryName,
		&item.Price,
		&item.Rating,
		&item.ReviewCount,
		&deletedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}

	item.Deleted = deletedAt != nil
	return &item, nil
}
