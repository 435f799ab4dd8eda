package document

import (
	"context"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRepository defines the interface for purchase persistence
type PurchaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Purchase, error)

	// FindByIDForUpdate locks the purchase row for the posting transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Purchase, error)

	FindByNumber(ctx context.Context, number string) (*Purchase, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Purchase, error)
	Save(ctx context.Context, purchase *Purchase) error
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByNumber(ctx context.Context, number string) (*Sale, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, error)
	Save(ctx context.Context, sale *Sale) error
}

// PurchaseReturnRepository defines the interface for purchase return persistence
type PurchaseReturnRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseReturn, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseReturn, error)
	FindByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]PurchaseReturn, error)

	// SumReturnedQuantity totals posted return quantity against one
	// original purchase line
	SumReturnedQuantity(ctx context.Context, originalLineID uuid.UUID) (decimal.Decimal, error)

	Save(ctx context.Context, ret *PurchaseReturn) error
}

// SaleReturnRepository defines the interface for sale return persistence
type SaleReturnRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SaleReturn, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SaleReturn, error)
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]SaleReturn, error)
	SumReturnedQuantity(ctx context.Context, originalLineID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, ret *SaleReturn) error
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByParty(ctx context.Context, partyID uuid.UUID, filter shared.Filter) ([]Payment, error)
	Save(ctx context.Context, payment *Payment) error
}

// BankTransactionRepository defines the interface for bank voucher persistence
type BankTransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BankTransaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*BankTransaction, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]BankTransaction, error)
	Save(ctx context.Context, tx *BankTransaction) error
}

// ExpenseRepository defines the interface for expense voucher persistence
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Expense, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Expense, error)
	Save(ctx context.Context, expense *Expense) error
}

// QuotationRepository defines the interface for quotation persistence
type QuotationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)

	// FindByIDForUpdate locks the quotation row so conversion to a sale
	// happens at most once under concurrency
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Quotation, error)

	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Quotation, error)
	Save(ctx context.Context, quotation *Quotation) error
}
