package persistence

import (
	"context"

	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/accounting"
	"github.com/ledgercore/backend/internal/domain/catalog"
	"github.com/ledgercore/backend/internal/domain/document"
	"github.com/ledgercore/backend/internal/domain/inventory"
	"github.com/ledgercore/backend/internal/domain/notification"
	"github.com/ledgercore/backend/internal/domain/partner"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos scope.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx})
	})
}

// gormRepositories provides access to all repositories within a transaction
type gormRepositories struct {
	tx *gorm.DB
}

func (r *gormRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormRepositories) Categories() catalog.CategoryRepository {
	return NewGormCategoryRepository(r.tx)
}

func (r *gormRepositories) Warehouses() partner.WarehouseRepository {
	return NewGormWarehouseRepository(r.tx)
}

func (r *gormRepositories) Lots() inventory.StockLotRepository {
	return NewGormStockLotRepository(r.tx)
}

func (r *gormRepositories) Movements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormRepositories) Accounts() accounting.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

func (r *gormRepositories) Journal() accounting.JournalEntryRepository {
	return NewGormJournalEntryRepository(r.tx)
}

func (r *gormRepositories) Purchases() document.PurchaseRepository {
	return NewGormPurchaseRepository(r.tx)
}

func (r *gormRepositories) Sales() document.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormRepositories) PurchaseReturns() document.PurchaseReturnRepository {
	return NewGormPurchaseReturnRepository(r.tx)
}

func (r *gormRepositories) SaleReturns() document.SaleReturnRepository {
	return NewGormSaleReturnRepository(r.tx)
}

func (r *gormRepositories) Payments() document.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormRepositories) BankTransactions() document.BankTransactionRepository {
	return NewGormBankTransactionRepository(r.tx)
}

func (r *gormRepositories) Expenses() document.ExpenseRepository {
	return NewGormExpenseRepository(r.tx)
}

func (r *gormRepositories) Quotations() document.QuotationRepository {
	return NewGormQuotationRepository(r.tx)
}

func (r *gormRepositories) Notifications() notification.NotificationRepository {
	return NewGormNotificationRepository(r.tx)
}

var _ scope.TransactionScope = (*GormTransactionScope)(nil)
var _ scope.Repositories = (*gormRepositories)(nil)
