package partner

import (
	"context"

	"github.com/google/uuid"
)

// WarehouseRepository defines the interface for warehouse persistence
type WarehouseRepository interface {
	// FindByID finds a warehouse by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)

	// FindByCode finds a warehouse by its unique code
	FindByCode(ctx context.Context, code string) (*Warehouse, error)

	// FindAllActive returns all active warehouses
	FindAllActive(ctx context.Context) ([]Warehouse, error)

	// Save creates or updates a warehouse
	Save(ctx context.Context, warehouse *Warehouse) error

	// Exists checks whether a warehouse exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
