package documents

import (
	"context"
	"time"

	appinv "github.com/ledgercore/backend/internal/application/inventory"
	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/accounting"
	"github.com/ledgercore/backend/internal/domain/document"
	"github.com/ledgercore/backend/internal/domain/inventory"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/ledgercore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateSaleInput describes a new draft sale
type CreateSaleInput struct {
	Number      string
	CustomerID  uuid.UUID
	WarehouseID uuid.UUID
	Date        time.Time
	Lines       []SaleLineInput
	ActorID     uuid.UUID
}

// SaleLineInput is one sold line of a new sale. LotID pins a specific
// lot; when nil the warehouse allocation policy chooses.
type SaleLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
	Discount  decimal.Decimal
	LotID     *uuid.UUID
}

// CreateSale builds and stores a draft sale
func (e *Engine) CreateSale(ctx context.Context, input CreateSaleInput) (*document.Sale, error) {
	sale, err := document.NewSale(input.Number, input.CustomerID, input.WarehouseID, input.Date, input.ActorID)
	if err != nil {
		return nil, err
	}
	for _, line := range input.Lines {
		if err := sale.AddLine(line.ProductID, line.Quantity, line.UnitPrice, line.TaxRate, line.Discount, line.LotID); err != nil {
			return nil, err
		}
	}

	err = e.scope.Execute(ctx, func(repos scope.Repositories) error {
		productIDs := make([]uuid.UUID, 0, len(sale.Lines))
		for i := range sale.Lines {
			productIDs = append(productIDs, sale.Lines[i].ProductID)
		}
		if err := e.checkPartnerRefs(ctx, repos, input.WarehouseID, productIDs); err != nil {
			return err
		}
		if existing, err := repos.Sales().FindByNumber(ctx, input.Number); err == nil && existing != nil {
			return shared.ErrAlreadyExists
		} else if err != nil && !shared.IsNotFound(err) {
			return err
		}
		return repos.Sales().Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// ApproveSale posts a sale: stock out by allocation policy (or the
// pinned lot), cost of goods recorded per line, revenue posted against
// receivable (or cash). Insufficient stock on any line aborts the whole
// document; nothing partial ever commits.
func (e *Engine) ApproveSale(ctx context.Context, saleID, actorID uuid.UUID) (*document.Sale, error) {
	var sale *document.Sale
	var mutations []appinv.Mutation

	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		sale, err = repos.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		mutations, err = e.postSaleIn(ctx, repos, sale, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.stock.Notify(ctx, mutations)
	e.logger.Info("sale posted",
		zap.String("sale_id", saleID.String()),
		zap.String("number", sale.Number),
		zap.String("total", sale.TotalAmount.String()),
		zap.String("cost", sale.TotalCost.String()),
	)
	return sale, nil
}

// postSaleIn runs the posting sequence for a sale inside an already-open
// transaction: status transition, stock consumption with recorded line
// costs, and the balanced revenue/COGS batch. Quotation conversion uses
// this directly so the converted sale posts in the conversion's
// transaction.
func (e *Engine) postSaleIn(ctx context.Context, repos scope.Repositories, sale *document.Sale, actorID uuid.UUID) ([]appinv.Mutation, error) {
	if err := sale.Approve(); err != nil {
		return nil, err
	}

	accounts, err := e.resolveAccounts(ctx, repos)
	if err != nil {
		return nil, err
	}

	var mutations []appinv.Mutation
	ref := sale.Reference()
	for i := range sale.Lines {
		line := &sale.Lines[i]
		cost, lineMutations, err := e.consumeForLine(ctx, repos, sale.WarehouseID, line, ref, actorID)
		if err != nil {
			return nil, err
		}
		if err := sale.RecordLineCost(line.ID, cost); err != nil {
			return nil, err
		}
		mutations = append(mutations, lineMutations...)
	}

	settlement := accounts.Receivable
	if sale.PaidImmediately {
		settlement = accounts.Cash
	}
	batch := accounting.NewPostingBatch(sale.Date, ref, actorID).
		Debit(settlement, valueobject.NewMoney(sale.TotalAmount)).
		Credit(accounts.Sales, valueobject.NewMoney(sale.NetAmount)).
		Credit(accounts.TaxOutput, valueobject.NewMoney(sale.TaxAmount)).
		Debit(accounts.CostOfGoods, valueobject.NewMoney(sale.TotalCost)).
		Credit(accounts.Inventory, valueobject.NewMoney(sale.TotalCost))
	if err := e.ledger.PostIn(ctx, repos, batch); err != nil {
		return nil, err
	}

	return mutations, repos.Sales().Save(ctx, sale)
}

// CancelSale voids an unposted sale
func (e *Engine) CancelSale(ctx context.Context, saleID uuid.UUID) error {
	return e.scope.Execute(ctx, func(repos scope.Repositories) error {
		sale, err := repos.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := sale.Cancel(); err != nil {
			return err
		}
		return repos.Sales().Save(ctx, sale)
	})
}

// consumeForLine withdraws a sale line's quantity from stock, returning
// the total cost of the consumed lots
func (e *Engine) consumeForLine(ctx context.Context, repos scope.Repositories, warehouseID uuid.UUID, line *document.SaleLine, ref shared.DocumentReference, actorID uuid.UUID) (decimal.Decimal, []appinv.Mutation, error) {
	lots, err := repos.Lots().FindAvailableForUpdate(ctx, warehouseID, line.ProductID)
	if err != nil {
		return decimal.Zero, nil, err
	}

	policy := inventory.AllocationExpiryFirst
	var lotIDs []uuid.UUID
	if line.LotID != nil {
		policy = inventory.AllocationSpecified
		lotIDs = []uuid.UUID{*line.LotID}
	}
	strategy, err := inventory.StrategyFor(policy, lotIDs)
	if err != nil {
		return decimal.Zero, nil, err
	}
	allocation, err := strategy.Allocate(line.Quantity, lots)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if !allocation.Fulfilled {
		available := line.Quantity.Sub(allocation.ShortBy)
		return decimal.Zero, nil, shared.NewInsufficientStockError(line.ProductID, warehouseID, line.Quantity, available)
	}

	lotsByID := make(map[uuid.UUID]*inventory.StockLot, len(lots))
	for i := range lots {
		lotsByID[lots[i].ID] = &lots[i]
	}

	var mutations []appinv.Mutation
	for _, alloc := range allocation.Allocations {
		lot := lotsByID[alloc.LotID]
		_, lotMutations, err := e.stock.AdjustIn(ctx, repos, appinv.AdjustCommand{
			WarehouseID: warehouseID,
			ProductID:   line.ProductID,
			BatchNumber: lot.BatchNumber,
			ExpiryDate:  lot.ExpiryDate,
			Delta:       alloc.Quantity.Neg(),
			Reference:   ref,
			ActorID:     actorID,
		})
		if err != nil {
			return decimal.Zero, nil, err
		}
		mutations = append(mutations, lotMutations...)
	}

	return allocation.TotalCost, mutations, nil
}
