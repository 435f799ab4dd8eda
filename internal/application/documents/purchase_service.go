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

// CreatePurchaseInput describes a new draft purchase
type CreatePurchaseInput struct {
	Number      string
	SupplierID  uuid.UUID
	WarehouseID uuid.UUID
	Date        time.Time
	Lines       []PurchaseLineInput
	ActorID     uuid.UUID
}

// PurchaseLineInput is one received line of a new purchase
type PurchaseLineInput struct {
	ProductID   uuid.UUID
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	TaxRate     decimal.Decimal
	BatchNumber string
	ExpiryDate  *time.Time
}

// CreatePurchase builds and stores a draft purchase
func (e *Engine) CreatePurchase(ctx context.Context, input CreatePurchaseInput) (*document.Purchase, error) {
	purchase, err := document.NewPurchase(input.Number, input.SupplierID, input.WarehouseID, input.Date, input.ActorID)
	if err != nil {
		return nil, err
	}
	for _, line := range input.Lines {
		if err := purchase.AddLine(line.ProductID, line.Quantity, line.UnitCost, line.TaxRate, line.BatchNumber, line.ExpiryDate); err != nil {
			return nil, err
		}
	}

	err = e.scope.Execute(ctx, func(repos scope.Repositories) error {
		if err := e.checkPartnerRefs(ctx, repos, input.WarehouseID, productIDsOfPurchase(purchase)); err != nil {
			return err
		}
		if existing, err := repos.Purchases().FindByNumber(ctx, input.Number); err == nil && existing != nil {
			return shared.ErrAlreadyExists
		} else if err != nil && !shared.IsNotFound(err) {
			return err
		}
		return repos.Purchases().Save(ctx, purchase)
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// ApprovePurchase posts a purchase: stock in at line cost, inventory
// debited against payable (or cash when settled immediately). The status
// change, lot updates, movements and journal rows are one transaction.
func (e *Engine) ApprovePurchase(ctx context.Context, purchaseID, actorID uuid.UUID) (*document.Purchase, error) {
	var purchase *document.Purchase
	var mutations []appinv.Mutation

	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		purchase, err = repos.Purchases().FindByIDForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if err := purchase.Approve(); err != nil {
			return err
		}

		accounts, err := e.resolveAccounts(ctx, repos)
		if err != nil {
			return err
		}

		ref := purchase.Reference()
		for i := range purchase.Lines {
			line := &purchase.Lines[i]
			_, lineMutations, err := e.stock.AdjustIn(ctx, repos, appinv.AdjustCommand{
				WarehouseID: purchase.WarehouseID,
				ProductID:   line.ProductID,
				BatchNumber: line.BatchNumber,
				ExpiryDate:  line.ExpiryDate,
				Delta:       line.Quantity,
				UnitCost:    line.UnitCost,
				Reference:   ref,
				ActorID:     actorID,
			})
			if err != nil {
				return err
			}
			mutations = append(mutations, lineMutations...)
		}

		settlement := accounts.Payable
		if purchase.PaidImmediately {
			settlement = accounts.Cash
		}
		batch := accounting.NewPostingBatch(purchase.Date, ref, actorID).
			Debit(accounts.Inventory, valueobject.NewMoney(purchase.NetAmount)).
			Debit(accounts.TaxInput, valueobject.NewMoney(purchase.TaxAmount)).
			Credit(settlement, valueobject.NewMoney(purchase.TotalAmount))
		if err := e.ledger.PostIn(ctx, repos, batch); err != nil {
			return err
		}

		return repos.Purchases().Save(ctx, purchase)
	})
	if err != nil {
		return nil, err
	}

	e.stock.Notify(ctx, mutations)
	e.logger.Info("purchase posted",
		zap.String("purchase_id", purchaseID.String()),
		zap.String("number", purchase.Number),
		zap.String("total", purchase.TotalAmount.String()),
	)
	return purchase, nil
}

// CancelPurchase voids an unposted purchase
func (e *Engine) CancelPurchase(ctx context.Context, purchaseID uuid.UUID) error {
	return e.scope.Execute(ctx, func(repos scope.Repositories) error {
		purchase, err := repos.Purchases().FindByIDForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if err := purchase.Cancel(); err != nil {
			return err
		}
		return repos.Purchases().Save(ctx, purchase)
	})
}

func (e *Engine) checkPartnerRefs(ctx context.Context, repos scope.Repositories, warehouseID uuid.UUID, productIDs []uuid.UUID) error {
	ok, err := repos.Warehouses().Exists(ctx, warehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NewReferentialGapError("warehouse", warehouseID)
	}
	for _, productID := range productIDs {
		ok, err := repos.Products().Exists(ctx, productID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.NewReferentialGapError("product", productID)
		}
	}
	return nil
}

func productIDsOfPurchase(p *document.Purchase) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Lines))
	for i := range p.Lines {
		ids = append(ids, p.Lines[i].ProductID)
	}
	return ids
}
