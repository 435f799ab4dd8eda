package documents

import (
	"context"
	"time"

	appinv "github.com/ledgercore/backend/internal/application/inventory"
	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/document"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateQuotationInput describes a new draft quotation
type CreateQuotationInput struct {
	Number      string
	CustomerID  uuid.UUID
	WarehouseID uuid.UUID
	Date        time.Time
	ValidUntil  *time.Time
	Lines       []QuotationLineInput
	ActorID     uuid.UUID
}

// QuotationLineInput is one offered line of a new quotation
type QuotationLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
	Discount  decimal.Decimal
}

// CreateQuotation builds and stores a draft quotation
func (e *Engine) CreateQuotation(ctx context.Context, input CreateQuotationInput) (*document.Quotation, error) {
	quotation, err := document.NewQuotation(input.Number, input.CustomerID, input.WarehouseID, input.Date, input.ValidUntil, input.ActorID)
	if err != nil {
		return nil, err
	}
	for _, line := range input.Lines {
		if err := quotation.AddLine(line.ProductID, line.Quantity, line.UnitPrice, line.TaxRate, line.Discount); err != nil {
			return nil, err
		}
	}

	err = e.scope.Execute(ctx, func(repos scope.Repositories) error {
		productIDs := make([]uuid.UUID, 0, len(quotation.Lines))
		for i := range quotation.Lines {
			productIDs = append(productIDs, quotation.Lines[i].ProductID)
		}
		if err := e.checkPartnerRefs(ctx, repos, input.WarehouseID, productIDs); err != nil {
			return err
		}
		return repos.Quotations().Save(ctx, quotation)
	})
	if err != nil {
		return nil, err
	}
	return quotation, nil
}

// ApproveQuotation marks a quotation accepted by the customer
func (e *Engine) ApproveQuotation(ctx context.Context, quotationID uuid.UUID) (*document.Quotation, error) {
	var quotation *document.Quotation
	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		quotation, err = repos.Quotations().FindByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if err := quotation.Approve(); err != nil {
			return err
		}
		return repos.Quotations().Save(ctx, quotation)
	})
	if err != nil {
		return nil, err
	}
	return quotation, nil
}

// ConvertQuotation turns an approved quotation into a posted sale: the
// lines are copied into a new sale which then runs the regular sale
// posting (stock out, revenue and COGS) in the same transaction. The
// quotation row is locked for the conversion, so it converts at most
// once even under concurrent calls; failure anywhere (expired window,
// insufficient stock) rolls the whole conversion back, leaving the
// quotation unconverted.
func (e *Engine) ConvertQuotation(ctx context.Context, quotationID uuid.UUID, saleNumber string, actorID uuid.UUID) (*document.Sale, error) {
	var sale *document.Sale
	var mutations []appinv.Mutation

	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		quotation, err := repos.Quotations().FindByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if quotation.IsExpiredAt(time.Now()) {
			return shared.NewDomainError("QUOTATION_EXPIRED", "Quotation validity window has passed")
		}

		sale, err = document.NewSale(saleNumber, quotation.CustomerID, quotation.WarehouseID, time.Now(), actorID)
		if err != nil {
			return err
		}
		sale.QuotationID = &quotation.ID
		for i := range quotation.Lines {
			line := &quotation.Lines[i]
			if err := sale.AddLine(line.ProductID, line.Quantity, line.UnitPrice, line.TaxRate, line.Discount, nil); err != nil {
				return err
			}
		}

		if err := quotation.MarkConverted(sale.ID); err != nil {
			return err
		}
		mutations, err = e.postSaleIn(ctx, repos, sale, actorID)
		if err != nil {
			return err
		}
		return repos.Quotations().Save(ctx, quotation)
	})
	if err != nil {
		return nil, err
	}

	e.stock.Notify(ctx, mutations)
	e.logger.Info("quotation converted",
		zap.String("quotation_id", quotationID.String()),
		zap.String("sale_id", sale.ID.String()),
	)
	return sale, nil
}

// CancelQuotation voids an unconverted quotation
func (e *Engine) CancelQuotation(ctx context.Context, quotationID uuid.UUID) error {
	return e.scope.Execute(ctx, func(repos scope.Repositories) error {
		quotation, err := repos.Quotations().FindByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if err := quotation.Cancel(); err != nil {
			return err
		}
		return repos.Quotations().Save(ctx, quotation)
	})
}
