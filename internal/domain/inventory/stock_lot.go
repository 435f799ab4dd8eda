package inventory

import (
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLot is the atomic inventory unit: the quantity of one product in one
// warehouse sharing a batch number, expiry date and cost price. Lots are
// never deleted, only driven to zero, so batch history stays reportable.
type StockLot struct {
	shared.BaseAggregateRoot
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_lot_key,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_lot_key,priority:2"`
	BatchNumber string          `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_stock_lot_key,priority:3"`
	ExpiryDate  *time.Time      `gorm:"uniqueIndex:idx_stock_lot_key,priority:4"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockLot) TableName() string {
	return "stock_lots"
}

// NewStockLot creates an empty lot for a (warehouse, product, batch, expiry) key
func NewStockLot(warehouseID, productID uuid.UUID, batchNumber string, expiryDate *time.Time, unitCost decimal.Decimal) (*StockLot, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	return &StockLot{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		WarehouseID:       warehouseID,
		ProductID:         productID,
		BatchNumber:       batchNumber,
		ExpiryDate:        expiryDate,
		UnitCost:          unitCost,
		Quantity:          decimal.Zero,
	}, nil
}

// Apply adds a signed quantity delta to the lot. A delta that would drive
// the quantity negative is rejected unless allowNegative is set (explicit
// administrative override on adjustments).
func (l *StockLot) Apply(delta decimal.Decimal, allowNegative bool) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity delta cannot be zero")
	}

	resulting := l.Quantity.Add(delta)
	if resulting.IsNegative() && !allowNegative {
		return shared.NewInsufficientStockError(l.ProductID, l.WarehouseID, delta.Neg(), l.Quantity)
	}

	l.Quantity = resulting
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// Receive adds inbound quantity at the given unit cost, blending the
// lot's cost to the weighted average of existing and incoming stock.
func (l *StockLot) Receive(delta, unitCost decimal.Decimal) error {
	if delta.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Inbound quantity must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	if l.Quantity.GreaterThan(decimal.Zero) {
		totalValue := l.Quantity.Mul(l.UnitCost).Add(delta.Mul(unitCost))
		l.UnitCost = totalValue.Div(l.Quantity.Add(delta)).Round(4)
	} else {
		l.UnitCost = unitCost
	}
	return l.Apply(delta, false)
}

// IsExpired returns true if the lot's expiry date is in the past
func (l *StockLot) IsExpired() bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(time.Now())
}

// WillExpireWithin returns true if the lot expires within the given duration
func (l *StockLot) WillExpireWithin(window time.Duration) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(time.Now().Add(window))
}

// HasStock returns true if the lot has remaining quantity
func (l *StockLot) HasStock() bool {
	return l.Quantity.GreaterThan(decimal.Zero)
}

// IsAvailable returns true if the lot can be withdrawn from (has stock, not expired)
func (l *StockLot) IsAvailable() bool {
	return l.HasStock() && !l.IsExpired()
}

// TotalValue returns quantity * unit cost for the lot
func (l *StockLot) TotalValue() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// State returns an immutable snapshot of the lot for alert evaluation
func (l *StockLot) State() LotState {
	return LotState{
		LotID:       l.ID,
		WarehouseID: l.WarehouseID,
		ProductID:   l.ProductID,
		BatchNumber: l.BatchNumber,
		ExpiryDate:  l.ExpiryDate,
		Quantity:    l.Quantity,
		UnitCost:    l.UnitCost,
	}
}

// LotState is a point-in-time snapshot of a stock lot. Alert hooks consume
// pairs of these instead of live aggregates, keeping the alert decision pure.
type LotState struct {
	LotID       uuid.UUID
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	BatchNumber string
	ExpiryDate  *time.Time
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}
