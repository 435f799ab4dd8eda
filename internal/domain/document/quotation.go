package document

import (
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationLine is one offered product line
type QuotationLine struct {
	shared.BaseEntity
	QuotationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (QuotationLine) TableName() string {
	return "quotation_lines"
}

// NetAmount returns quantity * unit price minus the line discount
func (l *QuotationLine) NetAmount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Sub(l.Discount)
}

// Quotation is a priced offer to a customer. It has no stock or ledger
// effects; its one operation of consequence is conversion into a sale,
// which can happen at most once.
type Quotation struct {
	shared.AuditedAggregateRoot
	Number          string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null"`
	Date            time.Time       `gorm:"not null"`
	ValidUntil      *time.Time
	Status          Status          `gorm:"type:varchar(16);not null;index"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ConvertedSaleID *uuid.UUID      `gorm:"type:uuid"`
	Lines           []QuotationLine `gorm:"foreignKey:QuotationID;references:ID"`
}

// TableName returns the table name for GORM
func (Quotation) TableName() string {
	return "quotations"
}

// NewQuotation creates a draft quotation
func NewQuotation(number string, customerID, warehouseID uuid.UUID, date time.Time, validUntil *time.Time, createdBy uuid.UUID) (*Quotation, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Quotation number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}

	return &Quotation{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Number:               number,
		CustomerID:           customerID,
		WarehouseID:          warehouseID,
		Date:                 date,
		ValidUntil:           validUntil,
		Status:               StatusDraft,
		TotalAmount:          decimal.Zero,
		Lines:                make([]QuotationLine, 0),
	}, nil
}

// AddLine adds an offered product line
func (q *Quotation) AddLine(productID uuid.UUID, quantity, unitPrice, taxRate, discount decimal.Decimal) error {
	if q.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be added to draft quotations")
	}
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	q.Lines = append(q.Lines, QuotationLine{
		BaseEntity:  shared.NewBaseEntity(),
		QuotationID: q.ID,
		ProductID:   productID,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TaxRate:     taxRate,
		Discount:    discount,
	})
	q.recalculateTotal()
	return nil
}

// Submit moves a draft quotation to pending
func (q *Quotation) Submit() error {
	return q.transition(StatusPending)
}

// Approve marks the quotation accepted by the customer
func (q *Quotation) Approve() error {
	if len(q.Lines) == 0 {
		return shared.NewDomainError("EMPTY_DOCUMENT", "Quotation has no lines")
	}
	return q.transition(StatusApproved)
}

// Cancel voids a quotation that was not converted
func (q *Quotation) Cancel() error {
	if q.IsConverted() {
		return shared.NewDomainError("ALREADY_CONVERTED", "Converted quotations cannot be cancelled")
	}
	return q.transition(StatusCancelled)
}

// IsExpiredAt reports whether the quotation's validity window has passed
func (q *Quotation) IsExpiredAt(now time.Time) bool {
	return q.ValidUntil != nil && q.ValidUntil.Before(now)
}

// IsConverted reports whether a sale was already created from this quotation
func (q *Quotation) IsConverted() bool {
	return q.ConvertedSaleID != nil
}

// MarkConverted records the sale created from this quotation. Conversion
// happens at most once; a second attempt is rejected.
func (q *Quotation) MarkConverted(saleID uuid.UUID) error {
	if q.IsConverted() {
		return shared.NewDomainError("ALREADY_CONVERTED", "Quotation was already converted to a sale")
	}
	if q.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Only approved quotations can be converted")
	}
	if saleID == uuid.Nil {
		return shared.NewDomainError("INVALID_SALE", "Sale ID cannot be empty")
	}
	q.ConvertedSaleID = &saleID
	q.Status = StatusCompleted
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
	return nil
}

func (q *Quotation) transition(target Status) error {
	if !q.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move quotation from "+q.Status.String()+" to "+target.String())
	}
	q.Status = target
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
	return nil
}

func (q *Quotation) recalculateTotal() {
	total := decimal.Zero
	for i := range q.Lines {
		net := q.Lines[i].NetAmount()
		total = total.Add(net).Add(net.Mul(q.Lines[i].TaxRate))
	}
	q.TotalAmount = total.Round(4)
	q.UpdatedAt = time.Now()
}
