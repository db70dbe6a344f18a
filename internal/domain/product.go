package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product status values. The status column is free-form in the database,
// but only these three are meaningful to the catalog.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
	StatusOutOfStock  = "out_of_stock"
)

// Product represents one catalog row. Code is unique across the whole
// store; segment and month are axes of the same row, not namespaces.
type Product struct {
	ID                int64                      `json:"id"`
	Code              string                     `json:"code"`
	Name              string                     `json:"name"`
	Description       string                     `json:"description"`
	Price             decimal.Decimal            `json:"price"`
	Category          string                     `json:"category"`
	ImageListingPath  string                     `json:"image_listing_path"`
	ImageFeaturesPath *string                    `json:"image_features_path,omitempty"`
	Installments      map[string]decimal.Decimal `json:"installments,omitempty"` // {"3": 338.85, "6": 178.87, ...}
	Month             string                     `json:"month"`
	Year              int                        `json:"year"`
	Segment           string                     `json:"segment"`
	Status            string                     `json:"status"`
	InStock           bool                       `json:"in_stock"`
}

// CatalogProduct is a Product enriched for a catalog view. Active is
// derived per load and never persisted: available, in stock, and the
// (year, month) of the view equals the currently detected month.
type CatalogProduct struct {
	Product
	Active   bool   `json:"active"`
	Validity string `json:"validity"` // "2025-november"
}

// CatalogView groups the enriched products of one (year, month) by
// canonical category name.
type CatalogView map[string][]CatalogProduct

// Validity formats the composite validity token for a view.
func Validity(year int, month string) string {
	return fmt.Sprintf("%d-%s", year, month)
}
