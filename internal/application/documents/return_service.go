package documents

import (
	"context"
	"time"

	appinv "github.com/ledgercore/backend/internal/application/inventory"
	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/accounting"
	"github.com/ledgercore/backend/internal/domain/document"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/ledgercore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReturnLineInput returns part of one original document line
type ReturnLineInput struct {
	OriginalLineID uuid.UUID
	Quantity       decimal.Decimal
}

// CreatePurchaseReturnInput describes a new draft purchase return
type CreatePurchaseReturnInput struct {
	Number     string
	PurchaseID uuid.UUID
	Date       time.Time
	Lines      []ReturnLineInput
	ActorID    uuid.UUID
}

// CreatePurchaseReturn builds a draft return against a posted purchase.
// Each line is capped at the originally received quantity net of any
// earlier posted returns.
func (e *Engine) CreatePurchaseReturn(ctx context.Context, input CreatePurchaseReturnInput) (*document.PurchaseReturn, error) {
	var ret *document.PurchaseReturn

	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		purchase, err := repos.Purchases().FindByID(ctx, input.PurchaseID)
		if err != nil {
			return err
		}

		ret, err = document.NewPurchaseReturn(input.Number, purchase, input.Date, input.ActorID)
		if err != nil {
			return err
		}

		linesByID := make(map[uuid.UUID]*document.PurchaseLine, len(purchase.Lines))
		for i := range purchase.Lines {
			linesByID[purchase.Lines[i].ID] = &purchase.Lines[i]
		}

		for _, line := range input.Lines {
			original, ok := linesByID[line.OriginalLineID]
			if !ok {
				return shared.NewDomainError("LINE_NOT_FOUND", "Original purchase line not found on purchase")
			}
			alreadyReturned, err := repos.PurchaseReturns().SumReturnedQuantity(ctx, line.OriginalLineID)
			if err != nil {
				return err
			}
			if err := ret.AddLine(original, line.Quantity, alreadyReturned); err != nil {
				return err
			}
		}

		return repos.PurchaseReturns().Save(ctx, ret)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// ApprovePurchaseReturn posts a purchase return: stock out of the
// original batch at its received cost, payable debited against inventory
func (e *Engine) ApprovePurchaseReturn(ctx context.Context, returnID, actorID uuid.UUID) (*document.PurchaseReturn, error) {
	var ret *document.PurchaseReturn
	var mutations []appinv.Mutation

	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		ret, err = repos.PurchaseReturns().FindByIDForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if err := ret.Approve(); err != nil {
			return err
		}

		purchase, err := repos.Purchases().FindByID(ctx, ret.PurchaseID)
		if err != nil {
			return err
		}
		originals := make(map[uuid.UUID]*document.PurchaseLine, len(purchase.Lines))
		for i := range purchase.Lines {
			originals[purchase.Lines[i].ID] = &purchase.Lines[i]
		}

		accounts, err := e.resolveAccounts(ctx, repos)
		if err != nil {
			return err
		}

		ref := ret.Reference()
		for i := range ret.Lines {
			line := &ret.Lines[i]
			original, ok := originals[line.OriginalLineID]
			if !ok {
				return shared.NewDomainError("LINE_NOT_FOUND", "Original purchase line not found on purchase")
			}
			// the cap was checked at draft time against returns posted
			// then; other drafts may have posted since, so re-check
			// against the current posted total before writing anything
			alreadyReturned, err := repos.PurchaseReturns().SumReturnedQuantity(ctx, line.OriginalLineID)
			if err != nil {
				return err
			}
			remaining := original.Quantity.Sub(alreadyReturned)
			if line.Quantity.GreaterThan(remaining) {
				return shared.NewDomainError("RETURN_EXCEEDS_ORIGINAL",
					"Return quantity "+line.Quantity.String()+" exceeds remaining returnable quantity "+remaining.String())
			}
			_, lineMutations, err := e.stock.AdjustIn(ctx, repos, appinv.AdjustCommand{
				WarehouseID: ret.WarehouseID,
				ProductID:   line.ProductID,
				BatchNumber: original.BatchNumber,
				ExpiryDate:  original.ExpiryDate,
				Delta:       line.Quantity.Neg(),
				Reference:   ref,
				ActorID:     actorID,
			})
			if err != nil {
				return err
			}
			mutations = append(mutations, lineMutations...)
		}

		batch := accounting.NewPostingBatch(ret.Date, ref, actorID).
			Debit(accounts.Payable, valueobject.NewMoney(ret.TotalAmount)).
			Credit(accounts.Inventory, valueobject.NewMoney(ret.NetAmount)).
			Credit(accounts.TaxInput, valueobject.NewMoney(ret.TaxAmount))
		if err := e.ledger.PostIn(ctx, repos, batch); err != nil {
			return err
		}

		return repos.PurchaseReturns().Save(ctx, ret)
	})
	if err != nil {
		return nil, err
	}

	e.stock.Notify(ctx, mutations)
	e.logger.Info("purchase return posted",
		zap.String("return_id", returnID.String()),
		zap.String("number", ret.Number),
	)
	return ret, nil
}

// CreateSaleReturnInput describes a new draft sale return
type CreateSaleReturnInput struct {
	Number  string
	SaleID  uuid.UUID
	Date    time.Time
	Lines   []ReturnLineInput
	ActorID uuid.UUID
}

// CreateSaleReturn builds a draft return against a posted sale, capping
// each line at the sold quantity net of earlier returns
func (e *Engine) CreateSaleReturn(ctx context.Context, input CreateSaleReturnInput) (*document.SaleReturn, error) {
	var ret *document.SaleReturn

	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		sale, err := repos.Sales().FindByID(ctx, input.SaleID)
		if err != nil {
			return err
		}

		ret, err = document.NewSaleReturn(input.Number, sale, input.Date, input.ActorID)
		if err != nil {
			return err
		}

		linesByID := make(map[uuid.UUID]*document.SaleLine, len(sale.Lines))
		for i := range sale.Lines {
			linesByID[sale.Lines[i].ID] = &sale.Lines[i]
		}

		for _, line := range input.Lines {
			original, ok := linesByID[line.OriginalLineID]
			if !ok {
				return shared.NewDomainError("LINE_NOT_FOUND", "Original sale line not found on sale")
			}
			alreadyReturned, err := repos.SaleReturns().SumReturnedQuantity(ctx, line.OriginalLineID)
			if err != nil {
				return err
			}
			if err := ret.AddLine(original, line.Quantity, alreadyReturned); err != nil {
				return err
			}
		}

		return repos.SaleReturns().Save(ctx, ret)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// ApproveSaleReturn posts a sale return: goods restocked at their
// outbound cost, revenue and receivable reversed, cost of goods reversed
func (e *Engine) ApproveSaleReturn(ctx context.Context, returnID, actorID uuid.UUID) (*document.SaleReturn, error) {
	var ret *document.SaleReturn
	var mutations []appinv.Mutation

	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		ret, err = repos.SaleReturns().FindByIDForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if err := ret.Approve(); err != nil {
			return err
		}

		sale, err := repos.Sales().FindByID(ctx, ret.SaleID)
		if err != nil {
			return err
		}
		originals := make(map[uuid.UUID]*document.SaleLine, len(sale.Lines))
		for i := range sale.Lines {
			originals[sale.Lines[i].ID] = &sale.Lines[i]
		}

		accounts, err := e.resolveAccounts(ctx, repos)
		if err != nil {
			return err
		}

		ref := ret.Reference()
		totalCost := decimal.Zero
		for i := range ret.Lines {
			line := &ret.Lines[i]
			original, ok := originals[line.OriginalLineID]
			if !ok {
				return shared.NewDomainError("LINE_NOT_FOUND", "Original sale line not found on sale")
			}
			// re-check the cap against returns posted since the draft
			// was created, before any stock or ledger write
			alreadyReturned, err := repos.SaleReturns().SumReturnedQuantity(ctx, line.OriginalLineID)
			if err != nil {
				return err
			}
			remaining := original.Quantity.Sub(alreadyReturned)
			if line.Quantity.GreaterThan(remaining) {
				return shared.NewDomainError("RETURN_EXCEEDS_ORIGINAL",
					"Return quantity "+line.Quantity.String()+" exceeds remaining returnable quantity "+remaining.String())
			}
			_, lineMutations, err := e.stock.AdjustIn(ctx, repos, appinv.AdjustCommand{
				WarehouseID: ret.WarehouseID,
				ProductID:   line.ProductID,
				Delta:       line.Quantity,
				UnitCost:    line.UnitCost,
				Reference:   ref,
				ActorID:     actorID,
			})
			if err != nil {
				return err
			}
			mutations = append(mutations, lineMutations...)
			totalCost = totalCost.Add(line.Quantity.Mul(line.UnitCost))
		}

		batch := accounting.NewPostingBatch(ret.Date, ref, actorID).
			Debit(accounts.Sales, valueobject.NewMoney(ret.NetAmount)).
			Debit(accounts.TaxOutput, valueobject.NewMoney(ret.TaxAmount)).
			Credit(accounts.Receivable, valueobject.NewMoney(ret.TotalAmount)).
			Debit(accounts.Inventory, valueobject.NewMoney(totalCost)).
			Credit(accounts.CostOfGoods, valueobject.NewMoney(totalCost))
		if err := e.ledger.PostIn(ctx, repos, batch); err != nil {
			return err
		}

		return repos.SaleReturns().Save(ctx, ret)
	})
	if err != nil {
		return nil, err
	}

	e.stock.Notify(ctx, mutations)
	e.logger.Info("sale return posted",
		zap.String("return_id", returnID.String()),
		zap.String("number", ret.Number),
	)
	return ret, nil
}
