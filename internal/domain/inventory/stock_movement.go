package inventory

import (
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMovement is the append-only audit record of every quantity delta
// applied to a lot. It backs the stock movement history read queries.
type StockMovement struct {
	shared.BaseEntity
	LotID             uuid.UUID                `gorm:"type:uuid;not null;index"`
	WarehouseID       uuid.UUID                `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID                `gorm:"type:uuid;not null;index"`
	BatchNumber       string                   `gorm:"type:varchar(64);not null;default:''"`
	Quantity          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	ResultingQuantity decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	UnitCost          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Reference         shared.DocumentReference `gorm:"embedded"`
	CreatedBy         *uuid.UUID               `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement records the delta just applied to a lot
func NewStockMovement(lot *StockLot, delta decimal.Decimal, ref shared.DocumentReference, createdBy uuid.UUID) *StockMovement {
	m := &StockMovement{
		BaseEntity:        shared.NewBaseEntity(),
		LotID:             lot.ID,
		WarehouseID:       lot.WarehouseID,
		ProductID:         lot.ProductID,
		BatchNumber:       lot.BatchNumber,
		Quantity:          delta,
		ResultingQuantity: lot.Quantity,
		UnitCost:          lot.UnitCost,
		Reference:         ref,
	}
	if createdBy != uuid.Nil {
		m.CreatedBy = &createdBy
	}
	return m
}

// IsInbound returns true for positive deltas
func (m *StockMovement) IsInbound() bool {
	return m.Quantity.GreaterThan(decimal.Zero)
}
