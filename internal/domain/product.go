package domain

import "context"

// Product is a catalog entry. The catalog owns product data; the rest of
// the system references products by value or id and never mutates them.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	InStock     bool    `json:"inStock"`
	Description string  `json:"description,omitempty"`
}

// ProductRepository defines read access to the catalog plus idempotent
// seeding of the demo products.
type ProductRepository interface {
	Seed(ctx context.Context, products []Product) error
	All(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
}
