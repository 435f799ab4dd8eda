package documents

import (
	"context"

	"github.com/ledgercore/backend/internal/application/accounting"
	appinv "github.com/ledgercore/backend/internal/application/inventory"
	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountCodes names the chart-of-accounts nodes the posting recipes
// write to. Codes come from configuration; they are resolved to account
// IDs inside each posting transaction.
type AccountCodes struct {
	Inventory   string
	Payable     string
	Receivable  string
	Cash        string
	Sales       string
	CostOfGoods string
	TaxInput    string
	TaxOutput   string
}

// Engine approves business documents. Approval is the only operation
// with side effects: it runs the document's stock and ledger recipe in
// one transaction, so a document's status change, its stock movements
// and its journal entries commit together or not at all.
type Engine struct {
	scope  scope.TransactionScope
	stock  *appinv.StockLedgerService
	ledger *accounting.LedgerService
	codes  AccountCodes
	logger *zap.Logger
}

// NewEngine creates a document engine
func NewEngine(txScope scope.TransactionScope, stock *appinv.StockLedgerService, ledger *accounting.LedgerService, codes AccountCodes, logger *zap.Logger) *Engine {
	return &Engine{
		scope:  txScope,
		stock:  stock,
		ledger: ledger,
		codes:  codes,
		logger: logger,
	}
}

// postingAccounts is the resolved account set for one posting transaction
type postingAccounts struct {
	Inventory   uuid.UUID
	Payable     uuid.UUID
	Receivable  uuid.UUID
	Cash        uuid.UUID
	Sales       uuid.UUID
	CostOfGoods uuid.UUID
	TaxInput    uuid.UUID
	TaxOutput   uuid.UUID
}

func (e *Engine) resolveAccounts(ctx context.Context, repos scope.Repositories) (*postingAccounts, error) {
	resolved := &postingAccounts{}
	for _, binding := range []struct {
		code   string
		target *uuid.UUID
	}{
		{e.codes.Inventory, &resolved.Inventory},
		{e.codes.Payable, &resolved.Payable},
		{e.codes.Receivable, &resolved.Receivable},
		{e.codes.Cash, &resolved.Cash},
		{e.codes.Sales, &resolved.Sales},
		{e.codes.CostOfGoods, &resolved.CostOfGoods},
		{e.codes.TaxInput, &resolved.TaxInput},
		{e.codes.TaxOutput, &resolved.TaxOutput},
	} {
		account, err := repos.Accounts().FindByCode(ctx, binding.code)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewDomainError("MISSING_ACCOUNT", "Configured account code "+binding.code+" does not exist")
			}
			return nil, err
		}
		*binding.target = account.ID
	}
	return resolved, nil
}
