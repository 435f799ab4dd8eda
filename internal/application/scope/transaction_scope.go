package scope

import (
	"context"

	"github.com/ledgercore/backend/internal/domain/accounting"
	"github.com/ledgercore/backend/internal/domain/catalog"
	"github.com/ledgercore/backend/internal/domain/document"
	"github.com/ledgercore/backend/internal/domain/inventory"
	"github.com/ledgercore/backend/internal/domain/notification"
	"github.com/ledgercore/backend/internal/domain/partner"
)

// TransactionScope provides transactional access to all repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or
// roll back atomically. Document posting relies on this: a document's
// status change, its stock movements and its journal entries are one
// transaction or none of them.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to every repository within one
// transaction. All repositories returned share the same underlying
// database transaction.
type Repositories interface {
	Products() catalog.ProductRepository
	Categories() catalog.CategoryRepository
	Warehouses() partner.WarehouseRepository

	Lots() inventory.StockLotRepository
	Movements() inventory.StockMovementRepository

	Accounts() accounting.AccountRepository
	Journal() accounting.JournalEntryRepository

	Purchases() document.PurchaseRepository
	Sales() document.SaleRepository
	PurchaseReturns() document.PurchaseReturnRepository
	SaleReturns() document.SaleReturnRepository
	Payments() document.PaymentRepository
	BankTransactions() document.BankTransactionRepository
	Expenses() document.ExpenseRepository
	Quotations() document.QuotationRepository

	Notifications() notification.NotificationRepository
}

// NoOpTransactionScope runs the function against a fixed repository set
// without a real transaction. Useful for tests.
type NoOpTransactionScope struct {
	Repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{Repos: repos}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.Repos)
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
