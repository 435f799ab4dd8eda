package document

import (
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentDirection distinguishes money received from money paid out
type PaymentDirection string

const (
	PaymentIn  PaymentDirection = "IN"
	PaymentOut PaymentDirection = "OUT"
)

// IsValid checks if the direction is known
func (d PaymentDirection) IsValid() bool {
	return d == PaymentIn || d == PaymentOut
}

// Payment settles a receivable or payable. An inbound payment debits
// cash/bank and credits receivable; an outbound payment debits payable
// and credits cash/bank.
type Payment struct {
	shared.AuditedAggregateRoot
	Number    string           `gorm:"type:varchar(64);not null;uniqueIndex"`
	Direction PaymentDirection `gorm:"type:varchar(8);not null"`
	PartyID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	// AccountID is the cash or bank account the money moves through
	AccountID uuid.UUID       `gorm:"type:uuid;not null"`
	Date      time.Time       `gorm:"not null"`
	Status    Status          `gorm:"type:varchar(16);not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Memo      string          `gorm:"type:varchar(255);not null;default:''"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a draft payment voucher
func NewPayment(number string, direction PaymentDirection, partyID, accountID uuid.UUID, amount decimal.Decimal, date time.Time, createdBy uuid.UUID) (*Payment, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Payment number cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Unknown payment direction: "+string(direction))
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party ID cannot be empty")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Settlement account ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	return &Payment{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Number:               number,
		Direction:            direction,
		PartyID:              partyID,
		AccountID:            accountID,
		Date:                 date,
		Status:               StatusDraft,
		Amount:               amount,
	}, nil
}

// Approve marks the payment posted; a second approval is rejected
func (p *Payment) Approve() error {
	if p.Status.IsPosted() {
		return shared.NewDuplicatePostingError(shared.ReferencePayment, p.ID, p.Status.String())
	}
	return transitionVoucher(&p.Status, StatusApproved, &p.BaseAggregateRoot, "payment")
}

// Cancel voids an unposted payment
func (p *Payment) Cancel() error {
	return transitionVoucher(&p.Status, StatusCancelled, &p.BaseAggregateRoot, "payment")
}

// Reference returns the tagged document reference for this payment
func (p *Payment) Reference() shared.DocumentReference {
	return shared.DocumentReference{Kind: shared.ReferencePayment, ID: p.ID}
}

// BankTransactionKind distinguishes deposits from withdrawals
type BankTransactionKind string

const (
	BankDeposit    BankTransactionKind = "DEPOSIT"
	BankWithdrawal BankTransactionKind = "WITHDRAWAL"
)

// IsValid checks if the kind is known
func (k BankTransactionKind) IsValid() bool {
	return k == BankDeposit || k == BankWithdrawal
}

// BankTransaction moves money between a cash account and a bank
// account. A deposit debits bank and credits cash; a withdrawal is the
// mirror image.
type BankTransaction struct {
	shared.AuditedAggregateRoot
	Number        string              `gorm:"type:varchar(64);not null;uniqueIndex"`
	Kind          BankTransactionKind `gorm:"type:varchar(16);not null"`
	BankAccountID uuid.UUID           `gorm:"type:uuid;not null"`
	CashAccountID uuid.UUID           `gorm:"type:uuid;not null"`
	Date          time.Time           `gorm:"not null"`
	Status        Status              `gorm:"type:varchar(16);not null;index"`
	Amount        decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Memo          string              `gorm:"type:varchar(255);not null;default:''"`
}

// TableName returns the table name for GORM
func (BankTransaction) TableName() string {
	return "bank_transactions"
}

// NewBankTransaction creates a draft bank voucher
func NewBankTransaction(number string, kind BankTransactionKind, bankAccountID, cashAccountID uuid.UUID, amount decimal.Decimal, date time.Time, createdBy uuid.UUID) (*BankTransaction, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Transaction number cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown bank transaction kind: "+string(kind))
	}
	if bankAccountID == uuid.Nil || cashAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Bank and cash account IDs cannot be empty")
	}
	if bankAccountID == cashAccountID {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Bank and cash accounts must differ")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}

	return &BankTransaction{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Number:               number,
		Kind:                 kind,
		BankAccountID:        bankAccountID,
		CashAccountID:        cashAccountID,
		Date:                 date,
		Status:               StatusDraft,
		Amount:               amount,
	}, nil
}

// Approve marks the transaction posted; a second approval is rejected
func (t *BankTransaction) Approve() error {
	if t.Status.IsPosted() {
		return shared.NewDuplicatePostingError(shared.ReferenceBankTransaction, t.ID, t.Status.String())
	}
	return transitionVoucher(&t.Status, StatusApproved, &t.BaseAggregateRoot, "bank transaction")
}

// Cancel voids an unposted transaction
func (t *BankTransaction) Cancel() error {
	return transitionVoucher(&t.Status, StatusCancelled, &t.BaseAggregateRoot, "bank transaction")
}

// Reference returns the tagged document reference for this transaction
func (t *BankTransaction) Reference() shared.DocumentReference {
	return shared.DocumentReference{Kind: shared.ReferenceBankTransaction, ID: t.ID}
}

// Expense records a cost paid from cash or bank. Approving it debits the
// expense account and credits the paying account.
type Expense struct {
	shared.AuditedAggregateRoot
	Number string `gorm:"type:varchar(64);not null;uniqueIndex"`
	// ExpenseAccountID is the expense-type account being debited
	ExpenseAccountID uuid.UUID `gorm:"type:uuid;not null"`
	// PaidFromID is the cash or bank account being credited
	PaidFromID uuid.UUID       `gorm:"type:uuid;not null"`
	Date       time.Time       `gorm:"not null"`
	Status     Status          `gorm:"type:varchar(16);not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Memo       string          `gorm:"type:varchar(255);not null;default:''"`
}

// TableName returns the table name for GORM
func (Expense) TableName() string {
	return "expenses"
}

// NewExpense creates a draft expense voucher
func NewExpense(number string, expenseAccountID, paidFromID uuid.UUID, amount decimal.Decimal, date time.Time, createdBy uuid.UUID) (*Expense, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Expense number cannot be empty")
	}
	if expenseAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Expense account ID cannot be empty")
	}
	if paidFromID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Paying account ID cannot be empty")
	}
	if expenseAccountID == paidFromID {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Expense and paying accounts must differ")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}

	return &Expense{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Number:               number,
		ExpenseAccountID:     expenseAccountID,
		PaidFromID:           paidFromID,
		Date:                 date,
		Status:               StatusDraft,
		Amount:               amount,
	}, nil
}

// Approve marks the expense posted; a second approval is rejected
func (e *Expense) Approve() error {
	if e.Status.IsPosted() {
		return shared.NewDuplicatePostingError(shared.ReferenceExpense, e.ID, e.Status.String())
	}
	return transitionVoucher(&e.Status, StatusApproved, &e.BaseAggregateRoot, "expense")
}

// Cancel voids an unposted expense
func (e *Expense) Cancel() error {
	return transitionVoucher(&e.Status, StatusCancelled, &e.BaseAggregateRoot, "expense")
}

// Reference returns the tagged document reference for this expense
func (e *Expense) Reference() shared.DocumentReference {
	return shared.DocumentReference{Kind: shared.ReferenceExpense, ID: e.ID}
}

func transitionVoucher(status *Status, target Status, root *shared.BaseAggregateRoot, kind string) error {
	if !status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move "+kind+" from "+status.String()+" to "+target.String())
	}
	*status = target
	root.UpdatedAt = time.Now()
	root.IncrementVersion()
	return nil
}
