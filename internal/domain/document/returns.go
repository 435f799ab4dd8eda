package document

import (
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseReturnLine sends goods back to a supplier. OriginalLineID ties
// the line to the purchase line being reversed so the returned quantity
// can be capped at what was received.
type PurchaseReturnLine struct {
	shared.BaseEntity
	ReturnID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OriginalLineID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseReturnLine) TableName() string {
	return "purchase_return_lines"
}

// NetAmount returns quantity * unit cost
func (l *PurchaseReturnLine) NetAmount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// TaxAmount returns the tax portion of the line
func (l *PurchaseReturnLine) TaxAmount() decimal.Decimal {
	return l.NetAmount().Mul(l.TaxRate)
}

// PurchaseReturn reverses part of a posted purchase. Approving it removes
// stock at the original cost and credits inventory against payable.
type PurchaseReturn struct {
	shared.AuditedAggregateRoot
	Number      string               `gorm:"type:varchar(64);not null;uniqueIndex"`
	PurchaseID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	SupplierID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID            `gorm:"type:uuid;not null"`
	Date        time.Time            `gorm:"not null"`
	Status      Status               `gorm:"type:varchar(16);not null;index"`
	NetAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Lines       []PurchaseReturnLine `gorm:"foreignKey:ReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseReturn) TableName() string {
	return "purchase_returns"
}

// NewPurchaseReturn creates a draft return against a posted purchase
func NewPurchaseReturn(number string, purchase *Purchase, date time.Time, createdBy uuid.UUID) (*PurchaseReturn, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Return number cannot be empty")
	}
	if purchase == nil {
		return nil, shared.NewDomainError("INVALID_ORIGINAL", "Original purchase is required")
	}
	if !purchase.Status.IsPosted() {
		return nil, shared.NewDomainError("INVALID_ORIGINAL", "Only posted purchases can be returned")
	}

	return &PurchaseReturn{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Number:               number,
		PurchaseID:           purchase.ID,
		SupplierID:           purchase.SupplierID,
		WarehouseID:          purchase.WarehouseID,
		Date:                 date,
		Status:               StatusDraft,
		NetAmount:            decimal.Zero,
		TaxAmount:            decimal.Zero,
		TotalAmount:          decimal.Zero,
		Lines:                make([]PurchaseReturnLine, 0),
	}, nil
}

// AddLine returns part of one original purchase line. alreadyReturned is
// the quantity returned by earlier returns against the same line; the
// cumulative returned quantity can never exceed what was received.
func (r *PurchaseReturn) AddLine(original *PurchaseLine, quantity, alreadyReturned decimal.Decimal) error {
	if r.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be added to draft returns")
	}
	if original == nil {
		return shared.NewDomainError("INVALID_LINE", "Original purchase line is required")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	remaining := original.Quantity.Sub(alreadyReturned)
	if quantity.GreaterThan(remaining) {
		return shared.NewDomainError("RETURN_EXCEEDS_ORIGINAL",
			"Return quantity "+quantity.String()+" exceeds remaining returnable quantity "+remaining.String())
	}

	r.Lines = append(r.Lines, PurchaseReturnLine{
		BaseEntity:     shared.NewBaseEntity(),
		ReturnID:       r.ID,
		OriginalLineID: original.ID,
		ProductID:      original.ProductID,
		Quantity:       quantity,
		UnitCost:       original.UnitCost,
		TaxRate:        original.TaxRate,
	})
	r.recalculateTotals()
	return nil
}

// Submit moves a draft return to pending
func (r *PurchaseReturn) Submit() error {
	return r.transition(StatusPending)
}

// Approve marks the return posted; a second approval is rejected
func (r *PurchaseReturn) Approve() error {
	if r.Status.IsPosted() {
		return shared.NewDuplicatePostingError(shared.ReferencePurchaseReturn, r.ID, r.Status.String())
	}
	if len(r.Lines) == 0 {
		return shared.NewDomainError("EMPTY_DOCUMENT", "Return has no lines to post")
	}
	return r.transition(StatusApproved)
}

// Complete closes an approved return
func (r *PurchaseReturn) Complete() error {
	return r.transition(StatusCompleted)
}

// Cancel voids an unposted return
func (r *PurchaseReturn) Cancel() error {
	return r.transition(StatusCancelled)
}

func (r *PurchaseReturn) transition(target Status) error {
	if !r.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move purchase return from "+r.Status.String()+" to "+target.String())
	}
	r.Status = target
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

func (r *PurchaseReturn) recalculateTotals() {
	net := decimal.Zero
	tax := decimal.Zero
	for i := range r.Lines {
		net = net.Add(r.Lines[i].NetAmount())
		tax = tax.Add(r.Lines[i].TaxAmount())
	}
	r.NetAmount = net
	r.TaxAmount = tax.Round(4)
	r.TotalAmount = net.Add(r.TaxAmount)
	r.UpdatedAt = time.Now()
}

// Reference returns the tagged document reference for this return
func (r *PurchaseReturn) Reference() shared.DocumentReference {
	return shared.DocumentReference{Kind: shared.ReferencePurchaseReturn, ID: r.ID}
}

// SaleReturnLine takes goods back from a customer against one sold line
type SaleReturnLine struct {
	shared.BaseEntity
	ReturnID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OriginalLineID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	// Discount is the original line's discount prorated to the returned
	// quantity, so the reversal matches the revenue actually recognized
	Discount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate  decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	// UnitCost restocks at the cost the goods left with, not current cost
	UnitCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SaleReturnLine) TableName() string {
	return "sale_return_lines"
}

// NetAmount returns quantity * unit price minus the prorated discount
func (l *SaleReturnLine) NetAmount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Sub(l.Discount)
}

// TaxAmount returns the tax portion of the line
func (l *SaleReturnLine) TaxAmount() decimal.Decimal {
	return l.NetAmount().Mul(l.TaxRate)
}

// SaleReturn reverses part of a posted sale. Approving it restocks the
// goods at their outbound cost and reverses revenue against receivable.
type SaleReturn struct {
	shared.AuditedAggregateRoot
	Number      string           `gorm:"type:varchar(64);not null;uniqueIndex"`
	SaleID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID        `gorm:"type:uuid;not null"`
	Date        time.Time        `gorm:"not null"`
	Status      Status           `gorm:"type:varchar(16);not null;index"`
	NetAmount   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Lines       []SaleReturnLine `gorm:"foreignKey:ReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleReturn) TableName() string {
	return "sale_returns"
}

// NewSaleReturn creates a draft return against a posted sale
func NewSaleReturn(number string, sale *Sale, date time.Time, createdBy uuid.UUID) (*SaleReturn, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Return number cannot be empty")
	}
	if sale == nil {
		return nil, shared.NewDomainError("INVALID_ORIGINAL", "Original sale is required")
	}
	if !sale.Status.IsPosted() {
		return nil, shared.NewDomainError("INVALID_ORIGINAL", "Only posted sales can be returned")
	}

	return &SaleReturn{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Number:               number,
		SaleID:               sale.ID,
		CustomerID:           sale.CustomerID,
		WarehouseID:          sale.WarehouseID,
		Date:                 date,
		Status:               StatusDraft,
		NetAmount:            decimal.Zero,
		TaxAmount:            decimal.Zero,
		TotalAmount:          decimal.Zero,
		Lines:                make([]SaleReturnLine, 0),
	}, nil
}

// AddLine returns part of one original sale line, capped at the sold
// quantity net of earlier returns. The restock cost is the original
// line's average outbound cost.
func (r *SaleReturn) AddLine(original *SaleLine, quantity, alreadyReturned decimal.Decimal) error {
	if r.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be added to draft returns")
	}
	if original == nil {
		return shared.NewDomainError("INVALID_LINE", "Original sale line is required")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	remaining := original.Quantity.Sub(alreadyReturned)
	if quantity.GreaterThan(remaining) {
		return shared.NewDomainError("RETURN_EXCEEDS_ORIGINAL",
			"Return quantity "+quantity.String()+" exceeds remaining returnable quantity "+remaining.String())
	}

	unitCost := decimal.Zero
	discount := decimal.Zero
	if original.Quantity.IsPositive() {
		unitCost = original.CostOfGoods.Div(original.Quantity).Round(4)
		discount = original.Discount.Mul(quantity).Div(original.Quantity).Round(4)
	}

	r.Lines = append(r.Lines, SaleReturnLine{
		BaseEntity:     shared.NewBaseEntity(),
		ReturnID:       r.ID,
		OriginalLineID: original.ID,
		ProductID:      original.ProductID,
		Quantity:       quantity,
		UnitPrice:      original.UnitPrice,
		Discount:       discount,
		TaxRate:        original.TaxRate,
		UnitCost:       unitCost,
	})
	r.recalculateTotals()
	return nil
}

// Submit moves a draft return to pending
func (r *SaleReturn) Submit() error {
	return r.transition(StatusPending)
}

// Approve marks the return posted; a second approval is rejected
func (r *SaleReturn) Approve() error {
	if r.Status.IsPosted() {
		return shared.NewDuplicatePostingError(shared.ReferenceSaleReturn, r.ID, r.Status.String())
	}
	if len(r.Lines) == 0 {
		return shared.NewDomainError("EMPTY_DOCUMENT", "Return has no lines to post")
	}
	return r.transition(StatusApproved)
}

// Complete closes an approved return
func (r *SaleReturn) Complete() error {
	return r.transition(StatusCompleted)
}

// Cancel voids an unposted return
func (r *SaleReturn) Cancel() error {
	return r.transition(StatusCancelled)
}

func (r *SaleReturn) transition(target Status) error {
	if !r.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move sale return from "+r.Status.String()+" to "+target.String())
	}
	r.Status = target
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

func (r *SaleReturn) recalculateTotals() {
	net := decimal.Zero
	tax := decimal.Zero
	for i := range r.Lines {
		net = net.Add(r.Lines[i].NetAmount())
		tax = tax.Add(r.Lines[i].TaxAmount())
	}
	r.NetAmount = net
	r.TaxAmount = tax.Round(4)
	r.TotalAmount = net.Add(r.TaxAmount)
	r.UpdatedAt = time.Now()
}

// Reference returns the tagged document reference for this return
func (r *SaleReturn) Reference() shared.DocumentReference {
	return shared.DocumentReference{Kind: shared.ReferenceSaleReturn, ID: r.ID}
}
