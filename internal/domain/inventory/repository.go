package inventory

import (
	"context"
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLotRepository defines the interface for stock lot persistence.
// The ForUpdate variants take row-level locks so that concurrent withdrawals
// against the same lots serialize instead of validating stale quantities.
type StockLotRepository interface {
	// FindByID finds a lot by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockLot, error)

	// FindByKeyForUpdate finds the lot for a (warehouse, product, batch, expiry)
	// key and locks the row. Returns shared.ErrNotFound when no lot exists.
	FindByKeyForUpdate(ctx context.Context, warehouseID, productID uuid.UUID, batchNumber string, expiryDate *time.Time) (*StockLot, error)

	// FindAvailableForUpdate returns all lots with stock for a
	// (warehouse, product) pair and locks the rows.
	FindAvailableForUpdate(ctx context.Context, warehouseID, productID uuid.UUID) ([]StockLot, error)

	// FindByWarehouseAndProduct returns all lots for a (warehouse, product) pair
	FindByWarehouseAndProduct(ctx context.Context, warehouseID, productID uuid.UUID) ([]StockLot, error)

	// FindExpiredWithStock returns expired lots still holding quantity
	FindExpiredWithStock(ctx context.Context) ([]StockLot, error)

	// FindExpiringWithin returns unexpired lots with stock whose expiry date
	// falls inside the window
	FindExpiringWithin(ctx context.Context, window time.Duration) ([]StockLot, error)

	// SumQuantityByWarehouseAndProduct sums quantity across the pair's lots
	SumQuantityByWarehouseAndProduct(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error)

	// SumQuantityByProduct sums quantity for a product across all warehouses
	SumQuantityByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)

	// Save creates or updates a lot
	Save(ctx context.Context, lot *StockLot) error
}

// StockMovementRepository is the append-only store of stock movements
type StockMovementRepository interface {
	// Append records a movement; movements are never updated or deleted
	Append(ctx context.Context, movement *StockMovement) error

	// FindByProduct lists movements for a product, newest first
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindByWarehouse lists movements for a warehouse, newest first
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindByReference lists movements created by one document
	FindByReference(ctx context.Context, ref shared.DocumentReference) ([]StockMovement, error)
}
