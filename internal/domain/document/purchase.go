package document

import (
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseLine is one received product line on a purchase
type PurchaseLine struct {
	shared.BaseEntity
	PurchaseID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	BatchNumber string          `gorm:"type:varchar(64);not null;default:''"`
	ExpiryDate  *time.Time
}

// TableName returns the table name for GORM
func (PurchaseLine) TableName() string {
	return "purchase_lines"
}

// NetAmount returns quantity * unit cost
func (l *PurchaseLine) NetAmount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// TaxAmount returns the tax portion of the line
func (l *PurchaseLine) TaxAmount() decimal.Decimal {
	return l.NetAmount().Mul(l.TaxRate)
}

// Purchase is goods received from a supplier. Approving it creates or
// augments stock lots at line cost and posts inventory against payable
// (or cash when settled immediately).
type Purchase struct {
	shared.AuditedAggregateRoot
	Number          string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	SupplierID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date            time.Time       `gorm:"not null"`
	Status          Status          `gorm:"type:varchar(16);not null;index"`
	PaidImmediately bool            `gorm:"not null;default:false"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Lines           []PurchaseLine  `gorm:"foreignKey:PurchaseID;references:ID"`
}

// TableName returns the table name for GORM
func (Purchase) TableName() string {
	return "purchases"
}

// NewPurchase creates a draft purchase
func NewPurchase(number string, supplierID, warehouseID uuid.UUID, date time.Time, createdBy uuid.UUID) (*Purchase, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Purchase number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}

	return &Purchase{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Number:               number,
		SupplierID:           supplierID,
		WarehouseID:          warehouseID,
		Date:                 date,
		Status:               StatusDraft,
		NetAmount:            decimal.Zero,
		TaxAmount:            decimal.Zero,
		TotalAmount:          decimal.Zero,
		Lines:                make([]PurchaseLine, 0),
	}, nil
}

// AddLine adds a received product line. Only draft purchases can be edited.
func (p *Purchase) AddLine(productID uuid.UUID, quantity, unitCost, taxRate decimal.Decimal, batchNumber string, expiryDate *time.Time) error {
	if p.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be added to draft purchases")
	}
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	p.Lines = append(p.Lines, PurchaseLine{
		BaseEntity:  shared.NewBaseEntity(),
		PurchaseID:  p.ID,
		ProductID:   productID,
		Quantity:    quantity,
		UnitCost:    unitCost,
		TaxRate:     taxRate,
		BatchNumber: batchNumber,
		ExpiryDate:  expiryDate,
	})
	p.recalculateTotals()
	return nil
}

// Submit moves a draft purchase to pending
func (p *Purchase) Submit() error {
	return p.transition(StatusPending)
}

// Approve marks the purchase posted. A purchase posts at most once; a
// second approval is rejected without any effect.
func (p *Purchase) Approve() error {
	if p.Status.IsPosted() {
		return shared.NewDuplicatePostingError(shared.ReferencePurchase, p.ID, p.Status.String())
	}
	if len(p.Lines) == 0 {
		return shared.NewDomainError("EMPTY_DOCUMENT", "Purchase has no lines to post")
	}
	return p.transition(StatusApproved)
}

// Complete closes an approved purchase
func (p *Purchase) Complete() error {
	return p.transition(StatusCompleted)
}

// Cancel voids an unposted purchase
func (p *Purchase) Cancel() error {
	return p.transition(StatusCancelled)
}

// SetPaidImmediately records that the purchase was settled in cash on approval
func (p *Purchase) SetPaidImmediately(paid bool) {
	p.PaidImmediately = paid
	p.UpdatedAt = time.Now()
}

func (p *Purchase) transition(target Status) error {
	if !p.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move purchase from "+p.Status.String()+" to "+target.String())
	}
	p.Status = target
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

func (p *Purchase) recalculateTotals() {
	net := decimal.Zero
	tax := decimal.Zero
	for i := range p.Lines {
		net = net.Add(p.Lines[i].NetAmount())
		tax = tax.Add(p.Lines[i].TaxAmount())
	}
	p.NetAmount = net
	p.TaxAmount = tax.Round(4)
	p.TotalAmount = net.Add(p.TaxAmount)
	p.UpdatedAt = time.Now()
}

// Reference returns the tagged document reference for this purchase
func (p *Purchase) Reference() shared.DocumentReference {
	return shared.DocumentReference{Kind: shared.ReferencePurchase, ID: p.ID}
}
