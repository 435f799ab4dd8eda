package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/ledgercore/backend/internal/domain/inventory"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockLotRepository implements StockLotRepository using GORM
type GormStockLotRepository struct {
	db *gorm.DB
}

// NewGormStockLotRepository creates a new GormStockLotRepository
func NewGormStockLotRepository(db *gorm.DB) *GormStockLotRepository {
	return &GormStockLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormStockLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockLot, error) {
	var lot inventory.StockLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindByKeyForUpdate finds the lot for a key and takes a row lock
func (r *GormStockLotRepository) FindByKeyForUpdate(ctx context.Context, warehouseID, productID uuid.UUID, batchNumber string, expiryDate *time.Time) (*inventory.StockLot, error) {
	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("warehouse_id = ? AND product_id = ? AND batch_number = ?", warehouseID, productID, batchNumber)
	if expiryDate == nil {
		query = query.Where("expiry_date IS NULL")
	} else {
		query = query.Where("expiry_date = ?", *expiryDate)
	}

	var lot inventory.StockLot
	if err := query.First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindAvailableForUpdate locks and returns all lots with stock for a
// (warehouse, product) pair. Lock ordering by id keeps concurrent
// multi-lot withdrawals deadlock free.
func (r *GormStockLotRepository) FindAvailableForUpdate(ctx context.Context, warehouseID, productID uuid.UUID) ([]inventory.StockLot, error) {
	var lots []inventory.StockLot
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("warehouse_id = ? AND product_id = ? AND quantity > 0", warehouseID, productID).
		Order("id ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindByWarehouseAndProduct returns all lots for a (warehouse, product) pair
func (r *GormStockLotRepository) FindByWarehouseAndProduct(ctx context.Context, warehouseID, productID uuid.UUID) ([]inventory.StockLot, error) {
	var lots []inventory.StockLot
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		Order("expiry_date ASC NULLS LAST, created_at ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindExpiredWithStock returns expired lots still holding quantity
func (r *GormStockLotRepository) FindExpiredWithStock(ctx context.Context) ([]inventory.StockLot, error) {
	var lots []inventory.StockLot
	if err := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date < ? AND quantity > 0", time.Now()).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindExpiringWithin returns unexpired lots with stock expiring inside the window
func (r *GormStockLotRepository) FindExpiringWithin(ctx context.Context, window time.Duration) ([]inventory.StockLot, error) {
	now := time.Now()
	var lots []inventory.StockLot
	if err := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date < ? AND quantity > 0", now, now.Add(window)).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// SumQuantityByWarehouseAndProduct sums quantity across the pair's lots
func (r *GormStockLotRepository) SumQuantityByWarehouseAndProduct(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	return r.sumQuantity(ctx, r.db.WithContext(ctx).
		Model(&inventory.StockLot{}).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID))
}

// SumQuantityByProduct sums quantity for a product across all warehouses
func (r *GormStockLotRepository) SumQuantityByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	return r.sumQuantity(ctx, r.db.WithContext(ctx).
		Model(&inventory.StockLot{}).
		Where("product_id = ?", productID))
}

// Save creates or updates a lot
func (r *GormStockLotRepository) Save(ctx context.Context, lot *inventory.StockLot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

func (r *GormStockLotRepository) sumQuantity(_ context.Context, query *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := query.Select("SUM(quantity)").Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

var _ inventory.StockLotRepository = (*GormStockLotRepository)(nil)

// GormStockMovementRepository implements StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append records a movement
func (r *GormStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByProduct lists movements for a product, newest first
func (r *GormStockMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByWarehouse lists movements for a warehouse, newest first
func (r *GormStockMovementRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByReference lists movements created by one document
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, ref shared.DocumentReference) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("reference_kind = ? AND reference_id = ?", ref.Kind, ref.ID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
