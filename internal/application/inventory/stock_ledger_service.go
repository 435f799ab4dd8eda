package inventory

import (
	"context"
	"time"

	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/inventory"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdjustCommand applies one signed quantity delta to a lot identified by
// its (warehouse, product, batch, expiry) key. A positive delta against
// a missing key creates the lot.
type AdjustCommand struct {
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	BatchNumber string
	ExpiryDate  *time.Time
	Delta       decimal.Decimal
	// UnitCost prices inbound quantity; ignored for withdrawals
	UnitCost decimal.Decimal
	// AllowNegative permits the lot to go below zero (administrative override)
	AllowNegative bool
	// Reference ties the movement to its originating document. When zero,
	// a standalone adjustment reference is generated.
	Reference shared.DocumentReference
	ActorID   uuid.UUID
}

// AdjustResult reports the lot state after the adjustment
type AdjustResult struct {
	LotState          inventory.LotState
	AggregateQuantity decimal.Decimal
}

// TransferCommand moves quantity of a product between two warehouses.
// Source lots are chosen by the allocation policy; each consumed lot is
// recreated (or merged) at the target under the same batch and expiry.
type TransferCommand struct {
	SourceWarehouseID uuid.UUID
	TargetWarehouseID uuid.UUID
	ProductID         uuid.UUID
	Quantity          decimal.Decimal
	Policy            inventory.AllocationPolicy
	// LotIDs pins specific source lots when Policy is AllocationSpecified
	LotIDs  []uuid.UUID
	ActorID uuid.UUID
}

// TransferResult reports the consumed source lots and the transfer reference
type TransferResult struct {
	Reference   shared.DocumentReference
	Allocations []inventory.LotAllocation
	TotalCost   decimal.Decimal
}

// StockLedgerService owns every quantity change to stock lots. All writes
// run inside a transaction scope with the affected lot rows locked, and
// every change leaves a movement record. Registered observers are told
// about lot changes after the transaction commits.
type StockLedgerService struct {
	scope     scope.TransactionScope
	logger    *zap.Logger
	observers []MutationObserver
}

// NewStockLedgerService creates a stock ledger service
func NewStockLedgerService(txScope scope.TransactionScope, logger *zap.Logger) *StockLedgerService {
	return &StockLedgerService{
		scope:  txScope,
		logger: logger,
	}
}

// RegisterObserver adds a post-commit mutation observer
func (s *StockLedgerService) RegisterObserver(observer MutationObserver) {
	s.observers = append(s.observers, observer)
}

// Adjust applies one quantity delta in its own transaction
func (s *StockLedgerService) Adjust(ctx context.Context, cmd AdjustCommand) (*AdjustResult, error) {
	var result *AdjustResult
	var mutations []Mutation

	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		result, mutations, err = s.AdjustIn(ctx, repos, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Notify(ctx, mutations)
	return result, nil
}

// AdjustIn applies one quantity delta inside an already-open transaction.
// Callers composing larger operations (document posting, transfers) use
// this variant and deliver the returned mutations after their own commit.
func (s *StockLedgerService) AdjustIn(ctx context.Context, repos scope.Repositories, cmd AdjustCommand) (*AdjustResult, []Mutation, error) {
	if cmd.Delta.IsZero() {
		return nil, nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity delta cannot be zero")
	}

	if err := s.checkReferences(ctx, repos, cmd.WarehouseID, cmd.ProductID); err != nil {
		return nil, nil, err
	}

	ref := cmd.Reference
	if ref.IsZero() {
		ref = shared.DocumentReference{Kind: shared.ReferenceAdjustment, ID: uuid.New()}
	}

	var old *inventory.LotState
	lot, err := repos.Lots().FindByKeyForUpdate(ctx, cmd.WarehouseID, cmd.ProductID, cmd.BatchNumber, cmd.ExpiryDate)
	switch {
	case err == nil:
		state := lot.State()
		old = &state
	case shared.IsNotFound(err):
		if cmd.Delta.IsNegative() && !cmd.AllowNegative {
			return nil, nil, shared.NewInsufficientStockError(cmd.ProductID, cmd.WarehouseID, cmd.Delta.Neg(), decimal.Zero)
		}
		lot, err = inventory.NewStockLot(cmd.WarehouseID, cmd.ProductID, cmd.BatchNumber, cmd.ExpiryDate, cmd.UnitCost)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, err
	}

	if cmd.Delta.IsPositive() && cmd.UnitCost.IsPositive() {
		err = lot.Receive(cmd.Delta, cmd.UnitCost)
	} else {
		err = lot.Apply(cmd.Delta, cmd.AllowNegative)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := repos.Lots().Save(ctx, lot); err != nil {
		return nil, nil, err
	}

	movement := inventory.NewStockMovement(lot, cmd.Delta, ref, cmd.ActorID)
	if err := repos.Movements().Append(ctx, movement); err != nil {
		return nil, nil, err
	}

	mutation, err := s.buildMutation(ctx, repos, old, lot)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("warehouse_id", cmd.WarehouseID.String()),
		zap.String("product_id", cmd.ProductID.String()),
		zap.String("delta", cmd.Delta.String()),
		zap.String("resulting", lot.Quantity.String()),
		zap.String("reference", ref.String()),
	)

	result := &AdjustResult{
		LotState:          lot.State(),
		AggregateQuantity: mutation.AggregateQuantity,
	}
	return result, []Mutation{mutation}, nil
}

// Transfer moves quantity between warehouses atomically: either all
// source withdrawals and target receipts commit, or none do.
func (s *StockLedgerService) Transfer(ctx context.Context, cmd TransferCommand) (*TransferResult, error) {
	var result *TransferResult
	var mutations []Mutation

	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		result, mutations, err = s.TransferIn(ctx, repos, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Notify(ctx, mutations)
	return result, nil
}

// TransferIn performs a transfer inside an already-open transaction
func (s *StockLedgerService) TransferIn(ctx context.Context, repos scope.Repositories, cmd TransferCommand) (*TransferResult, []Mutation, error) {
	if cmd.SourceWarehouseID == cmd.TargetWarehouseID {
		return nil, nil, shared.NewDomainError("INVALID_TRANSFER", "Source and target warehouses must differ")
	}
	if cmd.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, nil, shared.NewDomainError("INVALID_QUANTITY", "Transfer quantity must be positive")
	}
	if err := s.checkReferences(ctx, repos, cmd.SourceWarehouseID, cmd.ProductID); err != nil {
		return nil, nil, err
	}
	if err := s.checkReferences(ctx, repos, cmd.TargetWarehouseID, cmd.ProductID); err != nil {
		return nil, nil, err
	}

	ref := shared.DocumentReference{Kind: shared.ReferenceTransfer, ID: uuid.New()}

	lots, err := repos.Lots().FindAvailableForUpdate(ctx, cmd.SourceWarehouseID, cmd.ProductID)
	if err != nil {
		return nil, nil, err
	}

	strategy, err := inventory.StrategyFor(cmd.Policy, cmd.LotIDs)
	if err != nil {
		return nil, nil, err
	}
	allocation, err := strategy.Allocate(cmd.Quantity, lots)
	if err != nil {
		return nil, nil, err
	}
	if !allocation.Fulfilled {
		available := cmd.Quantity.Sub(allocation.ShortBy)
		return nil, nil, shared.NewInsufficientStockError(cmd.ProductID, cmd.SourceWarehouseID, cmd.Quantity, available)
	}

	lotsByID := make(map[uuid.UUID]*inventory.StockLot, len(lots))
	for i := range lots {
		lotsByID[lots[i].ID] = &lots[i]
	}

	mutations := make([]Mutation, 0, len(allocation.Allocations)*2)

	for _, alloc := range allocation.Allocations {
		source := lotsByID[alloc.LotID]
		oldState := source.State()

		if err := source.Apply(alloc.Quantity.Neg(), false); err != nil {
			return nil, nil, err
		}
		if err := repos.Lots().Save(ctx, source); err != nil {
			return nil, nil, err
		}
		if err := repos.Movements().Append(ctx, inventory.NewStockMovement(source, alloc.Quantity.Neg(), ref, cmd.ActorID)); err != nil {
			return nil, nil, err
		}

		target, err := s.receiveAtTarget(ctx, repos, cmd.TargetWarehouseID, source, alloc.Quantity)
		if err != nil {
			return nil, nil, err
		}
		if err := repos.Movements().Append(ctx, inventory.NewStockMovement(target.lot, alloc.Quantity, ref, cmd.ActorID)); err != nil {
			return nil, nil, err
		}

		sourceMutation, err := s.buildMutation(ctx, repos, &oldState, source)
		if err != nil {
			return nil, nil, err
		}
		targetMutation, err := s.buildMutation(ctx, repos, target.old, target.lot)
		if err != nil {
			return nil, nil, err
		}
		mutations = append(mutations, sourceMutation, targetMutation)
	}

	s.logger.Info("stock transferred",
		zap.String("source_warehouse_id", cmd.SourceWarehouseID.String()),
		zap.String("target_warehouse_id", cmd.TargetWarehouseID.String()),
		zap.String("product_id", cmd.ProductID.String()),
		zap.String("quantity", cmd.Quantity.String()),
		zap.Int("lots", len(allocation.Allocations)),
	)

	result := &TransferResult{
		Reference:   ref,
		Allocations: allocation.Allocations,
		TotalCost:   allocation.TotalCost,
	}
	return result, mutations, nil
}

// Notify delivers committed mutations to every registered observer.
// Observer errors are logged, never propagated: alert delivery failure
// must not fail a posting that already committed.
func (s *StockLedgerService) Notify(ctx context.Context, mutations []Mutation) {
	for _, mutation := range mutations {
		for _, observer := range s.observers {
			if err := observer.OnStockMutation(ctx, mutation); err != nil {
				s.logger.Error("stock mutation observer failed",
					zap.String("lot_id", mutation.New.LotID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

// OnHand returns the aggregate quantity for a (warehouse, product) pair
func (s *StockLedgerService) OnHand(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		total, err = repos.Lots().SumQuantityByWarehouseAndProduct(ctx, warehouseID, productID)
		return err
	})
	return total, err
}

// Lots returns the lot breakdown for a (warehouse, product) pair
func (s *StockLedgerService) Lots(ctx context.Context, warehouseID, productID uuid.UUID) ([]inventory.StockLot, error) {
	var lots []inventory.StockLot
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		lots, err = repos.Lots().FindByWarehouseAndProduct(ctx, warehouseID, productID)
		return err
	})
	return lots, err
}

// MovementHistory lists a product's movements, newest first
func (s *StockLedgerService) MovementHistory(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		movements, err = repos.Movements().FindByProduct(ctx, productID, filter)
		return err
	})
	return movements, err
}

type targetReceipt struct {
	lot *inventory.StockLot
	old *inventory.LotState
}

func (s *StockLedgerService) receiveAtTarget(ctx context.Context, repos scope.Repositories, warehouseID uuid.UUID, source *inventory.StockLot, quantity decimal.Decimal) (*targetReceipt, error) {
	var old *inventory.LotState
	lot, err := repos.Lots().FindByKeyForUpdate(ctx, warehouseID, source.ProductID, source.BatchNumber, source.ExpiryDate)
	switch {
	case err == nil:
		state := lot.State()
		old = &state
	case shared.IsNotFound(err):
		lot, err = inventory.NewStockLot(warehouseID, source.ProductID, source.BatchNumber, source.ExpiryDate, source.UnitCost)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := lot.Receive(quantity, source.UnitCost); err != nil {
		return nil, err
	}
	if err := repos.Lots().Save(ctx, lot); err != nil {
		return nil, err
	}
	return &targetReceipt{lot: lot, old: old}, nil
}

func (s *StockLedgerService) buildMutation(ctx context.Context, repos scope.Repositories, old *inventory.LotState, lot *inventory.StockLot) (Mutation, error) {
	aggregate, err := repos.Lots().SumQuantityByWarehouseAndProduct(ctx, lot.WarehouseID, lot.ProductID)
	if err != nil {
		return Mutation{}, err
	}

	minStock := decimal.Zero
	product, err := repos.Products().FindByID(ctx, lot.ProductID)
	if err == nil && product != nil {
		minStock = product.MinStock
	} else if err != nil && !shared.IsNotFound(err) {
		return Mutation{}, err
	}

	return Mutation{
		Old:               old,
		New:               lot.State(),
		MinStock:          minStock,
		AggregateQuantity: aggregate,
	}, nil
}

func (s *StockLedgerService) checkReferences(ctx context.Context, repos scope.Repositories, warehouseID, productID uuid.UUID) error {
	ok, err := repos.Warehouses().Exists(ctx, warehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NewReferentialGapError("warehouse", warehouseID)
	}
	ok, err = repos.Products().Exists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NewReferentialGapError("product", productID)
	}
	return nil
}
