package documents

import (
	"context"
	"testing"
	"time"

	appacct "github.com/ledgercore/backend/internal/application/accounting"
	appinv "github.com/ledgercore/backend/internal/application/inventory"
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
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// In-memory repositories backing engine tests. They mimic the storage
// contracts the services rely on: ErrNotFound on misses, copies on reads
// so only Save persists changes.

type memLotRepo struct {
	lots map[uuid.UUID]*inventory.StockLot
}

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (r *memLotRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockLot, error) {
	if lot, ok := r.lots[id]; ok {
		copied := *lot
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memLotRepo) FindByKeyForUpdate(_ context.Context, warehouseID, productID uuid.UUID, batchNumber string, expiryDate *time.Time) (*inventory.StockLot, error) {
	for _, lot := range r.lots {
		if lot.WarehouseID == warehouseID && lot.ProductID == productID && lot.BatchNumber == batchNumber && sameExpiry(lot.ExpiryDate, expiryDate) {
			copied := *lot
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memLotRepo) FindAvailableForUpdate(_ context.Context, warehouseID, productID uuid.UUID) ([]inventory.StockLot, error) {
	var out []inventory.StockLot
	for _, lot := range r.lots {
		if lot.WarehouseID == warehouseID && lot.ProductID == productID && lot.HasStock() {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *memLotRepo) FindByWarehouseAndProduct(_ context.Context, warehouseID, productID uuid.UUID) ([]inventory.StockLot, error) {
	var out []inventory.StockLot
	for _, lot := range r.lots {
		if lot.WarehouseID == warehouseID && lot.ProductID == productID {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *memLotRepo) FindExpiredWithStock(_ context.Context) ([]inventory.StockLot, error) {
	var out []inventory.StockLot
	for _, lot := range r.lots {
		if lot.IsExpired() && lot.HasStock() {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *memLotRepo) FindExpiringWithin(_ context.Context, window time.Duration) ([]inventory.StockLot, error) {
	var out []inventory.StockLot
	for _, lot := range r.lots {
		if !lot.IsExpired() && lot.HasStock() && lot.WillExpireWithin(window) {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *memLotRepo) SumQuantityByWarehouseAndProduct(_ context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, lot := range r.lots {
		if lot.WarehouseID == warehouseID && lot.ProductID == productID {
			total = total.Add(lot.Quantity)
		}
	}
	return total, nil
}

func (r *memLotRepo) SumQuantityByProduct(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			total = total.Add(lot.Quantity)
		}
	}
	return total, nil
}

func (r *memLotRepo) Save(_ context.Context, lot *inventory.StockLot) error {
	copied := *lot
	r.lots[lot.ID] = &copied
	return nil
}

type memMovementRepo struct {
	movements []inventory.StockMovement
}

func (r *memMovementRepo) Append(_ context.Context, movement *inventory.StockMovement) error {
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *memMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) FindByWarehouse(_ context.Context, warehouseID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.WarehouseID == warehouseID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) FindByReference(_ context.Context, ref shared.DocumentReference) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.Reference == ref {
			out = append(out, m)
		}
	}
	return out, nil
}

type memProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := r.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			copied := *p
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindAllActive(_ context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range r.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProductRepo) FindWithLowStockThreshold(_ context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range r.products {
		if p.Active && p.HasLowStockThreshold() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, p *catalog.Product) error {
	copied := *p
	r.products[p.ID] = &copied
	return nil
}

func (r *memProductRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.products[id]
	return ok, nil
}

type memWarehouseRepo struct {
	warehouses map[uuid.UUID]*partner.Warehouse
}

func (r *memWarehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	if w, ok := r.warehouses[id]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memWarehouseRepo) FindByCode(_ context.Context, code string) (*partner.Warehouse, error) {
	for _, w := range r.warehouses {
		if w.Code == code {
			copied := *w
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memWarehouseRepo) FindAllActive(_ context.Context) ([]partner.Warehouse, error) {
	var out []partner.Warehouse
	for _, w := range r.warehouses {
		if w.Active {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *memWarehouseRepo) Save(_ context.Context, w *partner.Warehouse) error {
	copied := *w
	r.warehouses[w.ID] = &copied
	return nil
}

func (r *memWarehouseRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.warehouses[id]
	return ok, nil
}

type memAccountRepo struct {
	accounts map[uuid.UUID]*accounting.Account
}

func (r *memAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*accounting.Account, error) {
	if a, ok := r.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memAccountRepo) FindByCode(_ context.Context, code string) (*accounting.Account, error) {
	for _, a := range r.accounts {
		if a.Code == code {
			copied := *a
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memAccountRepo) FindAllActive(_ context.Context) ([]accounting.Account, error) {
	var out []accounting.Account
	for _, a := range r.accounts {
		if a.Active {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAccountRepo) Save(_ context.Context, a *accounting.Account) error {
	copied := *a
	r.accounts[a.ID] = &copied
	return nil
}

func (r *memAccountRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.accounts[id]
	return ok, nil
}

type memJournalRepo struct {
	entries []accounting.JournalEntry
}

func (r *memJournalRepo) AppendAll(_ context.Context, entries []accounting.JournalEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memJournalRepo) SumDebitCredit(_ context.Context, accountID uuid.UUID, asOf *time.Time) (decimal.Decimal, decimal.Decimal, error) {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, e := range r.entries {
		if e.AccountID != accountID {
			continue
		}
		if asOf != nil && e.Date.After(*asOf) {
			continue
		}
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}
	return debits, credits, nil
}

func (r *memJournalRepo) FindByAccount(_ context.Context, accountID uuid.UUID, _ shared.Filter) ([]accounting.JournalEntry, error) {
	var out []accounting.JournalEntry
	for _, e := range r.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memJournalRepo) FindByReference(_ context.Context, ref shared.DocumentReference) ([]accounting.JournalEntry, error) {
	var out []accounting.JournalEntry
	for _, e := range r.entries {
		if e.Reference == ref {
			out = append(out, e)
		}
	}
	return out, nil
}

type memPurchaseRepo struct {
	purchases map[uuid.UUID]*document.Purchase
}

func (r *memPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*document.Purchase, error) {
	if p, ok := r.purchases[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memPurchaseRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.Purchase, error) {
	return r.FindByID(ctx, id)
}

func (r *memPurchaseRepo) FindByNumber(_ context.Context, number string) (*document.Purchase, error) {
	for _, p := range r.purchases {
		if p.Number == number {
			copied := *p
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPurchaseRepo) FindAll(_ context.Context, _ shared.Filter) ([]document.Purchase, error) {
	var out []document.Purchase
	for _, p := range r.purchases {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memPurchaseRepo) Save(_ context.Context, p *document.Purchase) error {
	copied := *p
	r.purchases[p.ID] = &copied
	return nil
}

type memSaleRepo struct {
	sales map[uuid.UUID]*document.Sale
}

func (r *memSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*document.Sale, error) {
	if s, ok := r.sales[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memSaleRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r *memSaleRepo) FindByNumber(_ context.Context, number string) (*document.Sale, error) {
	for _, s := range r.sales {
		if s.Number == number {
			copied := *s
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memSaleRepo) FindAll(_ context.Context, _ shared.Filter) ([]document.Sale, error) {
	var out []document.Sale
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memSaleRepo) Save(_ context.Context, s *document.Sale) error {
	copied := *s
	r.sales[s.ID] = &copied
	return nil
}

type memPurchaseReturnRepo struct {
	returns map[uuid.UUID]*document.PurchaseReturn
}

func (r *memPurchaseReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*document.PurchaseReturn, error) {
	if ret, ok := r.returns[id]; ok {
		copied := *ret
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memPurchaseReturnRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.PurchaseReturn, error) {
	return r.FindByID(ctx, id)
}

func (r *memPurchaseReturnRepo) FindByPurchase(_ context.Context, purchaseID uuid.UUID) ([]document.PurchaseReturn, error) {
	var out []document.PurchaseReturn
	for _, ret := range r.returns {
		if ret.PurchaseID == purchaseID {
			out = append(out, *ret)
		}
	}
	return out, nil
}

func (r *memPurchaseReturnRepo) SumReturnedQuantity(_ context.Context, originalLineID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, ret := range r.returns {
		if !ret.Status.IsPosted() {
			continue
		}
		for i := range ret.Lines {
			if ret.Lines[i].OriginalLineID == originalLineID {
				total = total.Add(ret.Lines[i].Quantity)
			}
		}
	}
	return total, nil
}

func (r *memPurchaseReturnRepo) Save(_ context.Context, ret *document.PurchaseReturn) error {
	copied := *ret
	r.returns[ret.ID] = &copied
	return nil
}

type memSaleReturnRepo struct {
	returns map[uuid.UUID]*document.SaleReturn
}

func (r *memSaleReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*document.SaleReturn, error) {
	if ret, ok := r.returns[id]; ok {
		copied := *ret
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memSaleReturnRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.SaleReturn, error) {
	return r.FindByID(ctx, id)
}

func (r *memSaleReturnRepo) FindBySale(_ context.Context, saleID uuid.UUID) ([]document.SaleReturn, error) {
	var out []document.SaleReturn
	for _, ret := range r.returns {
		if ret.SaleID == saleID {
			out = append(out, *ret)
		}
	}
	return out, nil
}

func (r *memSaleReturnRepo) SumReturnedQuantity(_ context.Context, originalLineID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, ret := range r.returns {
		if !ret.Status.IsPosted() {
			continue
		}
		for i := range ret.Lines {
			if ret.Lines[i].OriginalLineID == originalLineID {
				total = total.Add(ret.Lines[i].Quantity)
			}
		}
	}
	return total, nil
}

func (r *memSaleReturnRepo) Save(_ context.Context, ret *document.SaleReturn) error {
	copied := *ret
	r.returns[ret.ID] = &copied
	return nil
}

type memPaymentRepo struct {
	payments map[uuid.UUID]*document.Payment
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*document.Payment, error) {
	if p, ok := r.payments[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memPaymentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *memPaymentRepo) FindByParty(_ context.Context, partyID uuid.UUID, _ shared.Filter) ([]document.Payment, error) {
	var out []document.Payment
	for _, p := range r.payments {
		if p.PartyID == partyID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) Save(_ context.Context, p *document.Payment) error {
	copied := *p
	r.payments[p.ID] = &copied
	return nil
}

type memBankTransactionRepo struct {
	transactions map[uuid.UUID]*document.BankTransaction
}

func (r *memBankTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*document.BankTransaction, error) {
	if tx, ok := r.transactions[id]; ok {
		copied := *tx
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memBankTransactionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.BankTransaction, error) {
	return r.FindByID(ctx, id)
}

func (r *memBankTransactionRepo) FindAll(_ context.Context, _ shared.Filter) ([]document.BankTransaction, error) {
	var out []document.BankTransaction
	for _, tx := range r.transactions {
		out = append(out, *tx)
	}
	return out, nil
}

func (r *memBankTransactionRepo) Save(_ context.Context, tx *document.BankTransaction) error {
	copied := *tx
	r.transactions[tx.ID] = &copied
	return nil
}

type memExpenseRepo struct {
	expenses map[uuid.UUID]*document.Expense
}

func (r *memExpenseRepo) FindByID(_ context.Context, id uuid.UUID) (*document.Expense, error) {
	if e, ok := r.expenses[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memExpenseRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.Expense, error) {
	return r.FindByID(ctx, id)
}

func (r *memExpenseRepo) FindAll(_ context.Context, _ shared.Filter) ([]document.Expense, error) {
	var out []document.Expense
	for _, e := range r.expenses {
		out = append(out, *e)
	}
	return out, nil
}

func (r *memExpenseRepo) Save(_ context.Context, e *document.Expense) error {
	copied := *e
	r.expenses[e.ID] = &copied
	return nil
}

type memQuotationRepo struct {
	quotations map[uuid.UUID]*document.Quotation
}

func (r *memQuotationRepo) FindByID(_ context.Context, id uuid.UUID) (*document.Quotation, error) {
	if q, ok := r.quotations[id]; ok {
		copied := *q
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memQuotationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.Quotation, error) {
	return r.FindByID(ctx, id)
}

func (r *memQuotationRepo) FindByCustomer(_ context.Context, customerID uuid.UUID, _ shared.Filter) ([]document.Quotation, error) {
	var out []document.Quotation
	for _, q := range r.quotations {
		if q.CustomerID == customerID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *memQuotationRepo) Save(_ context.Context, q *document.Quotation) error {
	copied := *q
	r.quotations[q.ID] = &copied
	return nil
}

type memRepos struct {
	lots             *memLotRepo
	movements        *memMovementRepo
	products         *memProductRepo
	warehouses       *memWarehouseRepo
	accounts         *memAccountRepo
	journal          *memJournalRepo
	purchases        *memPurchaseRepo
	sales            *memSaleRepo
	purchaseReturns  *memPurchaseReturnRepo
	saleReturns      *memSaleReturnRepo
	payments         *memPaymentRepo
	bankTransactions *memBankTransactionRepo
	expenses         *memExpenseRepo
	quotations       *memQuotationRepo
}

func newMemRepos() *memRepos {
	return &memRepos{
		lots:             &memLotRepo{lots: make(map[uuid.UUID]*inventory.StockLot)},
		movements:        &memMovementRepo{},
		products:         &memProductRepo{products: make(map[uuid.UUID]*catalog.Product)},
		warehouses:       &memWarehouseRepo{warehouses: make(map[uuid.UUID]*partner.Warehouse)},
		accounts:         &memAccountRepo{accounts: make(map[uuid.UUID]*accounting.Account)},
		journal:          &memJournalRepo{},
		purchases:        &memPurchaseRepo{purchases: make(map[uuid.UUID]*document.Purchase)},
		sales:            &memSaleRepo{sales: make(map[uuid.UUID]*document.Sale)},
		purchaseReturns:  &memPurchaseReturnRepo{returns: make(map[uuid.UUID]*document.PurchaseReturn)},
		saleReturns:      &memSaleReturnRepo{returns: make(map[uuid.UUID]*document.SaleReturn)},
		payments:         &memPaymentRepo{payments: make(map[uuid.UUID]*document.Payment)},
		bankTransactions: &memBankTransactionRepo{transactions: make(map[uuid.UUID]*document.BankTransaction)},
		expenses:         &memExpenseRepo{expenses: make(map[uuid.UUID]*document.Expense)},
		quotations:       &memQuotationRepo{quotations: make(map[uuid.UUID]*document.Quotation)},
	}
}

func (m *memRepos) Products() catalog.ProductRepository                   { return m.products }
func (m *memRepos) Categories() catalog.CategoryRepository                { return nil }
func (m *memRepos) Warehouses() partner.WarehouseRepository               { return m.warehouses }
func (m *memRepos) Lots() inventory.StockLotRepository                    { return m.lots }
func (m *memRepos) Movements() inventory.StockMovementRepository          { return m.movements }
func (m *memRepos) Accounts() accounting.AccountRepository                { return m.accounts }
func (m *memRepos) Journal() accounting.JournalEntryRepository            { return m.journal }
func (m *memRepos) Purchases() document.PurchaseRepository                { return m.purchases }
func (m *memRepos) Sales() document.SaleRepository                        { return m.sales }
func (m *memRepos) PurchaseReturns() document.PurchaseReturnRepository    { return m.purchaseReturns }
func (m *memRepos) SaleReturns() document.SaleReturnRepository            { return m.saleReturns }
func (m *memRepos) Payments() document.PaymentRepository                  { return m.payments }
func (m *memRepos) BankTransactions() document.BankTransactionRepository  { return m.bankTransactions }
func (m *memRepos) Expenses() document.ExpenseRepository                  { return m.expenses }
func (m *memRepos) Quotations() document.QuotationRepository              { return m.quotations }
func (m *memRepos) Notifications() notification.NotificationRepository    { return nil }

// engineFixture wires a document engine over in-memory storage with a
// seeded chart of accounts, one warehouse and one product
type engineFixture struct {
	engine      *Engine
	ledger      *appacct.LedgerService
	stock       *appinv.StockLedgerService
	repos       *memRepos
	warehouseID uuid.UUID
	productID   uuid.UUID
	supplierID  uuid.UUID
	customerID  uuid.UUID
	actorID     uuid.UUID
	accountIDs  map[string]uuid.UUID
}

var testAccountCodes = AccountCodes{
	Inventory:   "1400",
	Payable:     "2100",
	Receivable:  "1200",
	Cash:        "1000",
	Sales:       "4000",
	CostOfGoods: "5000",
	TaxInput:    "1450",
	TaxOutput:   "2200",
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	ctx := context.Background()
	repos := newMemRepos()

	seed := []struct {
		code string
		name string
		typ  accounting.AccountType
	}{
		{"1000", "Cash", accounting.AccountTypeAsset},
		{"1200", "Accounts Receivable", accounting.AccountTypeAsset},
		{"1400", "Inventory", accounting.AccountTypeAsset},
		{"1450", "Input Tax", accounting.AccountTypeAsset},
		{"2100", "Accounts Payable", accounting.AccountTypeLiability},
		{"2200", "Output Tax", accounting.AccountTypeLiability},
		{"4000", "Sales Revenue", accounting.AccountTypeIncome},
		{"5000", "Cost of Goods Sold", accounting.AccountTypeExpense},
	}
	accountIDs := make(map[string]uuid.UUID, len(seed))
	for _, s := range seed {
		account, err := accounting.NewAccount(s.code, s.name, s.typ, decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, repos.accounts.Save(ctx, account))
		accountIDs[s.code] = account.ID
	}

	warehouse, err := partner.NewWarehouse("WH-1", "Main")
	require.NoError(t, err)
	require.NoError(t, repos.warehouses.Save(ctx, warehouse))

	product, err := catalog.NewProduct("SKU-1", "Widget", "pcs", uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, repos.products.Save(ctx, product))

	txScope := scope.NewNoOpTransactionScope(repos)
	logger := zap.NewNop()
	stock := appinv.NewStockLedgerService(txScope, logger)
	ledger := appacct.NewLedgerService(txScope, logger)

	return &engineFixture{
		engine:      NewEngine(txScope, stock, ledger, testAccountCodes, logger),
		ledger:      ledger,
		stock:       stock,
		repos:       repos,
		warehouseID: warehouse.ID,
		productID:   product.ID,
		supplierID:  uuid.New(),
		customerID:  uuid.New(),
		actorID:     uuid.New(),
		accountIDs:  accountIDs,
	}
}

func (f *engineFixture) accountID(t *testing.T, code string) uuid.UUID {
	t.Helper()
	id, ok := f.accountIDs[code]
	require.True(t, ok, "account %s not seeded", code)
	return id
}

func (f *engineFixture) addAccount(t *testing.T, code, name string, typ accounting.AccountType) uuid.UUID {
	t.Helper()
	account, err := accounting.NewAccount(code, name, typ, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, f.repos.accounts.Save(context.Background(), account))
	f.accountIDs[code] = account.ID
	return account.ID
}

func (f *engineFixture) journalSums(ref shared.DocumentReference) (decimal.Decimal, decimal.Decimal) {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, e := range f.repos.journal.entries {
		if e.Reference == ref {
			debits = debits.Add(e.Debit)
			credits = credits.Add(e.Credit)
		}
	}
	return debits, credits
}

func (f *engineFixture) postPurchase(t *testing.T, number string, quantity, unitCost int64, batch string, expiry *time.Time) *document.Purchase {
	t.Helper()
	ctx := context.Background()
	purchase, err := f.engine.CreatePurchase(ctx, CreatePurchaseInput{
		Number:      number,
		SupplierID:  f.supplierID,
		WarehouseID: f.warehouseID,
		Date:        time.Now(),
		Lines: []PurchaseLineInput{{
			ProductID:   f.productID,
			Quantity:    decimal.NewFromInt(quantity),
			UnitCost:    decimal.NewFromInt(unitCost),
			BatchNumber: batch,
			ExpiryDate:  expiry,
		}},
		ActorID: f.actorID,
	})
	require.NoError(t, err)
	posted, err := f.engine.ApprovePurchase(ctx, purchase.ID, f.actorID)
	require.NoError(t, err)
	return posted
}
