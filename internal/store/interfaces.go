package store

import (
	"context"

	"retail-catalog-service/internal/domain"
)

// MonthCount is one distinct (year, month) pair in the store together
// with the number of product rows it holds, across all segments.
type MonthCount struct {
	Year         int    `json:"year"`
	Month        string `json:"month"`
	ProductCount int    `json:"product_count"`
}

// ListProductsParams holds filters for the admin product listing.
type ListProductsParams struct {
	Segment *string
	Year    *int
	Month   *string
}

// ProductStorer defines the database operations the catalog depends on.
type ProductStorer interface {
	// ListByMonth returns every row matching the year, the canonical
	// month token, and the lower-cased segment identifier.
	ListByMonth(ctx context.Context, year int, month, segment string) ([]domain.Product, error)
	// DistinctMonths returns the distinct (year, month) pairs across
	// all segments with a product count per pair.
	DistinctMonths(ctx context.Context) ([]MonthCount, error)

	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}
