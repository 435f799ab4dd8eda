package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/accounting"
	"github.com/ledgercore/backend/internal/domain/catalog"
	"github.com/ledgercore/backend/internal/domain/document"
	"github.com/ledgercore/backend/internal/domain/inventory"
	"github.com/ledgercore/backend/internal/domain/notification"
	"github.com/ledgercore/backend/internal/domain/partner"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLotRepo struct {
	lots map[uuid.UUID]*inventory.StockLot
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[uuid.UUID]*inventory.StockLot)}
}

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (r *fakeLotRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockLot, error) {
	if lot, ok := r.lots[id]; ok {
		copied := *lot
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeLotRepo) FindByKeyForUpdate(_ context.Context, warehouseID, productID uuid.UUID, batchNumber string, expiryDate *time.Time) (*inventory.StockLot, error) {
	for _, lot := range r.lots {
		if lot.WarehouseID == warehouseID && lot.ProductID == productID && lot.BatchNumber == batchNumber && sameExpiry(lot.ExpiryDate, expiryDate) {
			copied := *lot
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeLotRepo) FindAvailableForUpdate(_ context.Context, warehouseID, productID uuid.UUID) ([]inventory.StockLot, error) {
	var out []inventory.StockLot
	for _, lot := range r.lots {
		if lot.WarehouseID == warehouseID && lot.ProductID == productID && lot.HasStock() {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) FindByWarehouseAndProduct(_ context.Context, warehouseID, productID uuid.UUID) ([]inventory.StockLot, error) {
	var out []inventory.StockLot
	for _, lot := range r.lots {
		if lot.WarehouseID == warehouseID && lot.ProductID == productID {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) FindExpiredWithStock(_ context.Context) ([]inventory.StockLot, error) {
	var out []inventory.StockLot
	for _, lot := range r.lots {
		if lot.IsExpired() && lot.HasStock() {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) FindExpiringWithin(_ context.Context, window time.Duration) ([]inventory.StockLot, error) {
	var out []inventory.StockLot
	for _, lot := range r.lots {
		if !lot.IsExpired() && lot.HasStock() && lot.WillExpireWithin(window) {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) SumQuantityByWarehouseAndProduct(_ context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, lot := range r.lots {
		if lot.WarehouseID == warehouseID && lot.ProductID == productID {
			total = total.Add(lot.Quantity)
		}
	}
	return total, nil
}

func (r *fakeLotRepo) SumQuantityByProduct(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			total = total.Add(lot.Quantity)
		}
	}
	return total, nil
}

func (r *fakeLotRepo) Save(_ context.Context, lot *inventory.StockLot) error {
	copied := *lot
	r.lots[lot.ID] = &copied
	return nil
}

type fakeMovementRepo struct {
	movements []inventory.StockMovement
}

func (r *fakeMovementRepo) Append(_ context.Context, movement *inventory.StockMovement) error {
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) FindByWarehouse(_ context.Context, warehouseID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.WarehouseID == warehouseID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) FindByReference(_ context.Context, ref shared.DocumentReference) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.Reference == ref {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := r.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, _ string) (*catalog.Product, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindAllActive(_ context.Context) ([]catalog.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) FindWithLowStockThreshold(_ context.Context) ([]catalog.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) Save(_ context.Context, p *catalog.Product) error {
	copied := *p
	r.products[p.ID] = &copied
	return nil
}

func (r *fakeProductRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.products[id]
	return ok, nil
}

type fakeWarehouseRepo struct {
	ids map[uuid.UUID]bool
}

func (r *fakeWarehouseRepo) FindByID(_ context.Context, _ uuid.UUID) (*partner.Warehouse, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeWarehouseRepo) FindByCode(_ context.Context, _ string) (*partner.Warehouse, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeWarehouseRepo) FindAllActive(_ context.Context) ([]partner.Warehouse, error) {
	return nil, nil
}

func (r *fakeWarehouseRepo) Save(_ context.Context, _ *partner.Warehouse) error {
	return nil
}

func (r *fakeWarehouseRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.ids[id], nil
}

type fakeRepos struct {
	lots       *fakeLotRepo
	movements  *fakeMovementRepo
	products   *fakeProductRepo
	warehouses *fakeWarehouseRepo
}

func (f *fakeRepos) Products() catalog.ProductRepository      { return f.products }
func (f *fakeRepos) Categories() catalog.CategoryRepository   { return nil }
func (f *fakeRepos) Warehouses() partner.WarehouseRepository  { return f.warehouses }
func (f *fakeRepos) Lots() inventory.StockLotRepository       { return f.lots }
func (f *fakeRepos) Movements() inventory.StockMovementRepository {
	return f.movements
}
func (f *fakeRepos) Accounts() accounting.AccountRepository      { return nil }
func (f *fakeRepos) Journal() accounting.JournalEntryRepository  { return nil }
func (f *fakeRepos) Purchases() document.PurchaseRepository      { return nil }
func (f *fakeRepos) Sales() document.SaleRepository              { return nil }
func (f *fakeRepos) PurchaseReturns() document.PurchaseReturnRepository {
	return nil
}
func (f *fakeRepos) SaleReturns() document.SaleReturnRepository { return nil }
func (f *fakeRepos) Payments() document.PaymentRepository       { return nil }
func (f *fakeRepos) BankTransactions() document.BankTransactionRepository {
	return nil
}
func (f *fakeRepos) Expenses() document.ExpenseRepository             { return nil }
func (f *fakeRepos) Quotations() document.QuotationRepository         { return nil }
func (f *fakeRepos) Notifications() notification.NotificationRepository {
	return nil
}

// recordingObserver captures delivered mutations
type recordingObserver struct {
	mutations []Mutation
}

func (o *recordingObserver) OnStockMutation(_ context.Context, mutation Mutation) error {
	o.mutations = append(o.mutations, mutation)
	return nil
}

type stockFixture struct {
	service     *StockLedgerService
	repos       *fakeRepos
	observer    *recordingObserver
	warehouseID uuid.UUID
	productID   uuid.UUID
	actorID     uuid.UUID
}

func newStockFixture(t *testing.T) *stockFixture {
	t.Helper()

	product, err := catalog.NewProduct("SKU-1", "Widget", "pcs", uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, product.SetMinStock(decimal.NewFromInt(10)))

	warehouseID := uuid.New()
	repos := &fakeRepos{
		lots:       newFakeLotRepo(),
		movements:  &fakeMovementRepo{},
		products:   &fakeProductRepo{products: map[uuid.UUID]*catalog.Product{product.ID: product}},
		warehouses: &fakeWarehouseRepo{ids: map[uuid.UUID]bool{warehouseID: true}},
	}

	observer := &recordingObserver{}
	service := NewStockLedgerService(scope.NewNoOpTransactionScope(repos), zap.NewNop())
	service.RegisterObserver(observer)

	return &stockFixture{
		service:     service,
		repos:       repos,
		observer:    observer,
		warehouseID: warehouseID,
		productID:   product.ID,
		actorID:     uuid.New(),
	}
}

func (f *stockFixture) addWarehouse() uuid.UUID {
	id := uuid.New()
	f.repos.warehouses.ids[id] = true
	return id
}

func (f *stockFixture) adjust(t *testing.T, delta, unitCost int64, batch string) *AdjustResult {
	t.Helper()
	result, err := f.service.Adjust(context.Background(), AdjustCommand{
		WarehouseID: f.warehouseID,
		ProductID:   f.productID,
		BatchNumber: batch,
		Delta:       decimal.NewFromInt(delta),
		UnitCost:    decimal.NewFromInt(unitCost),
		ActorID:     f.actorID,
	})
	require.NoError(t, err)
	return result
}

func TestStockLedgerServiceAdjust(t *testing.T) {
	ctx := context.Background()

	t.Run("positive delta against a missing key creates the lot", func(t *testing.T) {
		f := newStockFixture(t)

		result := f.adjust(t, 15, 4, "B-1")
		assert.True(t, result.LotState.Quantity.Equal(decimal.NewFromInt(15)))
		assert.True(t, result.LotState.UnitCost.Equal(decimal.NewFromInt(4)))
		assert.True(t, result.AggregateQuantity.Equal(decimal.NewFromInt(15)))

		require.Len(t, f.repos.movements.movements, 1)
		movement := f.repos.movements.movements[0]
		assert.Equal(t, shared.ReferenceAdjustment, movement.Reference.Kind)
		assert.True(t, movement.ResultingQuantity.Equal(decimal.NewFromInt(15)))
	})

	t.Run("inbound delta blends the lot cost", func(t *testing.T) {
		f := newStockFixture(t)
		f.adjust(t, 10, 10, "B-1")

		result := f.adjust(t, 10, 20, "B-1")
		assert.True(t, result.LotState.UnitCost.Equal(decimal.NewFromInt(15)))
		assert.True(t, result.LotState.Quantity.Equal(decimal.NewFromInt(20)))
	})

	t.Run("withdrawal beyond stock fails and changes nothing", func(t *testing.T) {
		f := newStockFixture(t)
		f.adjust(t, 5, 1, "B-1")
		movementsBefore := len(f.repos.movements.movements)

		_, err := f.service.Adjust(ctx, AdjustCommand{
			WarehouseID: f.warehouseID,
			ProductID:   f.productID,
			BatchNumber: "B-1",
			Delta:       decimal.NewFromInt(-8),
			ActorID:     f.actorID,
		})
		require.Error(t, err)

		var insufficient *shared.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Len(t, f.repos.movements.movements, movementsBefore)

		total, err := f.service.OnHand(ctx, f.warehouseID, f.productID)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(5)))
	})

	t.Run("withdrawal from a missing key is insufficient stock", func(t *testing.T) {
		f := newStockFixture(t)

		_, err := f.service.Adjust(ctx, AdjustCommand{
			WarehouseID: f.warehouseID,
			ProductID:   f.productID,
			Delta:       decimal.NewFromInt(-1),
			ActorID:     f.actorID,
		})
		var insufficient *shared.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
	})

	t.Run("override lets the lot go negative", func(t *testing.T) {
		f := newStockFixture(t)
		f.adjust(t, 3, 1, "B-1")

		result, err := f.service.Adjust(ctx, AdjustCommand{
			WarehouseID:   f.warehouseID,
			ProductID:     f.productID,
			BatchNumber:   "B-1",
			Delta:         decimal.NewFromInt(-5),
			AllowNegative: true,
			ActorID:       f.actorID,
		})
		require.NoError(t, err)
		assert.True(t, result.LotState.Quantity.Equal(decimal.NewFromInt(-2)))
	})

	t.Run("zero delta rejected", func(t *testing.T) {
		f := newStockFixture(t)
		_, err := f.service.Adjust(ctx, AdjustCommand{
			WarehouseID: f.warehouseID,
			ProductID:   f.productID,
			Delta:       decimal.Zero,
		})
		require.Error(t, err)
	})

	t.Run("unknown warehouse is a referential gap", func(t *testing.T) {
		f := newStockFixture(t)
		_, err := f.service.Adjust(ctx, AdjustCommand{
			WarehouseID: uuid.New(),
			ProductID:   f.productID,
			Delta:       decimal.NewFromInt(1),
		})
		var gap *shared.ReferentialGapError
		require.ErrorAs(t, err, &gap)
	})
}

func TestStockLedgerServiceObservers(t *testing.T) {
	ctx := context.Background()

	t.Run("observers see committed mutations", func(t *testing.T) {
		f := newStockFixture(t)
		f.adjust(t, 20, 1, "B-1")
		require.Len(t, f.observer.mutations, 1)

		created := f.observer.mutations[0]
		assert.True(t, created.IsCreation())
		assert.True(t, created.Delta().Equal(decimal.NewFromInt(20)))
		assert.True(t, created.MinStock.Equal(decimal.NewFromInt(10)))

		_, err := f.service.Adjust(ctx, AdjustCommand{
			WarehouseID: f.warehouseID,
			ProductID:   f.productID,
			BatchNumber: "B-1",
			Delta:       decimal.NewFromInt(-12),
			ActorID:     f.actorID,
		})
		require.NoError(t, err)
		require.Len(t, f.observer.mutations, 2)

		crossed := f.observer.mutations[1]
		require.NotNil(t, crossed.Old)
		assert.True(t, crossed.Delta().Equal(decimal.NewFromInt(-12)))
		assert.True(t, crossed.AggregateQuantity.Equal(decimal.NewFromInt(8)))
	})

	t.Run("failed operations deliver nothing", func(t *testing.T) {
		f := newStockFixture(t)
		_, err := f.service.Adjust(ctx, AdjustCommand{
			WarehouseID: f.warehouseID,
			ProductID:   f.productID,
			Delta:       decimal.NewFromInt(-1),
		})
		require.Error(t, err)
		assert.Empty(t, f.observer.mutations)
	})
}

func TestStockLedgerServiceTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves stock preserving batch and cost", func(t *testing.T) {
		f := newStockFixture(t)
		target := f.addWarehouse()
		f.adjust(t, 10, 7, "B-1")

		result, err := f.service.Transfer(ctx, TransferCommand{
			SourceWarehouseID: f.warehouseID,
			TargetWarehouseID: target,
			ProductID:         f.productID,
			Quantity:          decimal.NewFromInt(4),
			ActorID:           f.actorID,
		})
		require.NoError(t, err)
		assert.Equal(t, shared.ReferenceTransfer, result.Reference.Kind)
		require.Len(t, result.Allocations, 1)
		// 4 * 7 = 28
		assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(28)))

		source, err := f.service.OnHand(ctx, f.warehouseID, f.productID)
		require.NoError(t, err)
		assert.True(t, source.Equal(decimal.NewFromInt(6)))

		received, err := f.service.Lots(ctx, target, f.productID)
		require.NoError(t, err)
		require.Len(t, received, 1)
		assert.Equal(t, "B-1", received[0].BatchNumber)
		assert.True(t, received[0].Quantity.Equal(decimal.NewFromInt(4)))
		assert.True(t, received[0].UnitCost.Equal(decimal.NewFromInt(7)))

		// one outbound and one inbound movement under the transfer reference
		movements, err := f.repos.movements.FindByReference(ctx, result.Reference)
		require.NoError(t, err)
		assert.Len(t, movements, 2)
	})

	t.Run("insufficient stock rolls back the whole transfer", func(t *testing.T) {
		f := newStockFixture(t)
		target := f.addWarehouse()
		f.adjust(t, 3, 1, "B-1")

		_, err := f.service.Transfer(ctx, TransferCommand{
			SourceWarehouseID: f.warehouseID,
			TargetWarehouseID: target,
			ProductID:         f.productID,
			Quantity:          decimal.NewFromInt(5),
			ActorID:           f.actorID,
		})
		var insufficient *shared.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.True(t, insufficient.Requested.Equal(decimal.NewFromInt(5)))
		assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(3)))
	})

	t.Run("source and target must differ", func(t *testing.T) {
		f := newStockFixture(t)
		_, err := f.service.Transfer(ctx, TransferCommand{
			SourceWarehouseID: f.warehouseID,
			TargetWarehouseID: f.warehouseID,
			ProductID:         f.productID,
			Quantity:          decimal.NewFromInt(1),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must differ")
	})

	t.Run("pinned lots drive the allocation", func(t *testing.T) {
		f := newStockFixture(t)
		target := f.addWarehouse()
		f.adjust(t, 5, 2, "B-1")
		f.adjust(t, 5, 3, "B-2")

		lots, err := f.service.Lots(ctx, f.warehouseID, f.productID)
		require.NoError(t, err)
		var pinned uuid.UUID
		for _, lot := range lots {
			if lot.BatchNumber == "B-2" {
				pinned = lot.ID
			}
		}
		require.NotEqual(t, uuid.Nil, pinned)

		result, err := f.service.Transfer(ctx, TransferCommand{
			SourceWarehouseID: f.warehouseID,
			TargetWarehouseID: target,
			ProductID:         f.productID,
			Quantity:          decimal.NewFromInt(2),
			Policy:            inventory.AllocationSpecified,
			LotIDs:            []uuid.UUID{pinned},
			ActorID:           f.actorID,
		})
		require.NoError(t, err)
		require.Len(t, result.Allocations, 1)
		assert.Equal(t, pinned, result.Allocations[0].LotID)
	})
}
