package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its unique SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindAllActive returns all active products
	FindAllActive(ctx context.Context) ([]Product, error)

	// FindWithLowStockThreshold returns active products with min_stock > 0
	FindWithLowStockThreshold(ctx context.Context) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Exists checks whether a product exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error
}
