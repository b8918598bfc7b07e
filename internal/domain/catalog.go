package domain

import (
	"time"
)

// CatalogItem is a sellable item as stored in the catalog, the relational
// source of truth. The search index is a derived projection of it; this
// service never mutates catalog rows.
type CatalogItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Brand        string    `json:"brand,omitempty"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Price        float64   `json:"price"`
	Rating       float64   `json:"rating"`
	ReviewCount  int       `json:"review_count"`
	Deleted      bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
