package inventory

import (
	"context"

	"github.com/ledgercore/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// Mutation describes one committed lot change together with the context
// an alert decision needs: the product's low-stock threshold and the
// warehouse-level aggregate quantity after the change. It is assembled
// inside the posting transaction but delivered to observers only after
// commit, so observers never see changes that rolled back.
type Mutation struct {
	// Old is nil when the mutation created the lot
	Old *inventory.LotState
	New inventory.LotState

	// MinStock is the product's low-stock threshold, zero when unset
	MinStock decimal.Decimal

	// AggregateQuantity is the total on-hand quantity for the
	// (warehouse, product) pair after the mutation
	AggregateQuantity decimal.Decimal
}

// IsCreation reports whether the mutation brought the lot into existence
func (m Mutation) IsCreation() bool {
	return m.Old == nil
}

// Delta returns the signed quantity change of the lot
func (m Mutation) Delta() decimal.Decimal {
	if m.Old == nil {
		return m.New.Quantity
	}
	return m.New.Quantity.Sub(m.Old.Quantity)
}

// MutationObserver receives committed stock mutations. Observer failures
// are logged and never fail the originating operation.
type MutationObserver interface {
	OnStockMutation(ctx context.Context, mutation Mutation) error
}
