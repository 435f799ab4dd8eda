package document

import (
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleLine is one sold product line. A line may pin a specific lot;
// otherwise stock is drawn by the warehouse allocation policy.
type SaleLine struct {
	shared.BaseEntity
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	Discount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LotID     *uuid.UUID      `gorm:"type:uuid"`
	// CostOfGoods is filled at posting time from the consumed lots
	CostOfGoods decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SaleLine) TableName() string {
	return "sale_lines"
}

// NetAmount returns quantity * unit price minus the line discount
func (l *SaleLine) NetAmount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Sub(l.Discount)
}

// TaxAmount returns the tax portion of the line
func (l *SaleLine) TaxAmount() decimal.Decimal {
	return l.NetAmount().Mul(l.TaxRate)
}

// Sale is goods sold to a customer. Approving it consumes stock lots,
// records cost of goods sold and posts revenue against receivable
// (or cash when settled immediately).
type Sale struct {
	shared.AuditedAggregateRoot
	Number          string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date            time.Time       `gorm:"not null"`
	Status          Status          `gorm:"type:varchar(16);not null;index"`
	PaidImmediately bool            `gorm:"not null;default:false"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuotationID     *uuid.UUID      `gorm:"type:uuid;index"`
	Lines           []SaleLine      `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// NewSale creates a draft sale
func NewSale(number string, customerID, warehouseID uuid.UUID, date time.Time, createdBy uuid.UUID) (*Sale, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Sale number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}

	return &Sale{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Number:               number,
		CustomerID:           customerID,
		WarehouseID:          warehouseID,
		Date:                 date,
		Status:               StatusDraft,
		NetAmount:            decimal.Zero,
		TaxAmount:            decimal.Zero,
		TotalAmount:          decimal.Zero,
		TotalCost:            decimal.Zero,
		Lines:                make([]SaleLine, 0),
	}, nil
}

// AddLine adds a sold product line. Only draft sales can be edited.
func (s *Sale) AddLine(productID uuid.UUID, quantity, unitPrice, taxRate, discount decimal.Decimal, lotID *uuid.UUID) error {
	if s.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be added to draft sales")
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
	if discount.IsNegative() || discount.GreaterThan(quantity.Mul(unitPrice)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount must be between zero and the line amount")
	}

	s.Lines = append(s.Lines, SaleLine{
		BaseEntity: shared.NewBaseEntity(),
		SaleID:     s.ID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TaxRate:    taxRate,
		Discount:   discount,
		LotID:      lotID,
	})
	s.recalculateTotals()
	return nil
}

// Submit moves a draft sale to pending
func (s *Sale) Submit() error {
	return s.transition(StatusPending)
}

// Approve marks the sale posted; a second approval is rejected
func (s *Sale) Approve() error {
	if s.Status.IsPosted() {
		return shared.NewDuplicatePostingError(shared.ReferenceSale, s.ID, s.Status.String())
	}
	if len(s.Lines) == 0 {
		return shared.NewDomainError("EMPTY_DOCUMENT", "Sale has no lines to post")
	}
	return s.transition(StatusApproved)
}

// Complete closes an approved sale
func (s *Sale) Complete() error {
	return s.transition(StatusCompleted)
}

// Cancel voids an unposted sale
func (s *Sale) Cancel() error {
	return s.transition(StatusCancelled)
}

// SetPaidImmediately records that the sale was settled in cash on approval
func (s *Sale) SetPaidImmediately(paid bool) {
	s.PaidImmediately = paid
	s.UpdatedAt = time.Now()
}

// RecordLineCost stores the cost of goods consumed for one line and
// refreshes the sale's total cost. Called during posting.
func (s *Sale) RecordLineCost(lineID uuid.UUID, cost decimal.Decimal) error {
	for i := range s.Lines {
		if s.Lines[i].ID == lineID {
			s.Lines[i].CostOfGoods = cost
			total := decimal.Zero
			for j := range s.Lines {
				total = total.Add(s.Lines[j].CostOfGoods)
			}
			s.TotalCost = total
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "Sale line not found")
}

func (s *Sale) transition(target Status) error {
	if !s.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move sale from "+s.Status.String()+" to "+target.String())
	}
	s.Status = target
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

func (s *Sale) recalculateTotals() {
	net := decimal.Zero
	tax := decimal.Zero
	for i := range s.Lines {
		net = net.Add(s.Lines[i].NetAmount())
		tax = tax.Add(s.Lines[i].TaxAmount())
	}
	s.NetAmount = net
	s.TaxAmount = tax.Round(4)
	s.TotalAmount = net.Add(s.TaxAmount)
	s.UpdatedAt = time.Now()
}

// Reference returns the tagged document reference for this sale
func (s *Sale) Reference() shared.DocumentReference {
	return shared.DocumentReference{Kind: shared.ReferenceSale, ID: s.ID}
}
