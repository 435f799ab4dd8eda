package persistence

import (
	"context"
	"errors"

	"github.com/ledgercore/backend/internal/domain/document"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func firstOrNotFound[T any](query *gorm.DB, dest *T) (*T, error) {
	if err := query.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return dest, nil
}

// GormPurchaseRepository implements PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// FindByID finds a purchase with its lines
func (r *GormPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Purchase, error) {
	var purchase document.Purchase
	return firstOrNotFound(r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id), &purchase)
}

// FindByIDForUpdate locks the purchase row for the posting transaction.
// Lines are loaded separately; the lock covers the document head.
func (r *GormPurchaseRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.Purchase, error) {
	var purchase document.Purchase
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("purchase_id = ?", id).
		Order("created_at ASC").
		Find(&purchase.Lines).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindByNumber finds a purchase by its unique number
func (r *GormPurchaseRepository) FindByNumber(ctx context.Context, number string) (*document.Purchase, error) {
	var purchase document.Purchase
	return firstOrNotFound(r.db.WithContext(ctx).Preload("Lines").Where("number = ?", number), &purchase)
}

// FindAll lists purchases, newest first
func (r *GormPurchaseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]document.Purchase, error) {
	var purchases []document.Purchase
	if err := r.db.WithContext(ctx).
		Order("date DESC, created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

// Save creates or updates a purchase and its lines
func (r *GormPurchaseRepository) Save(ctx context.Context, purchase *document.Purchase) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(purchase).Error
}

var _ document.PurchaseRepository = (*GormPurchaseRepository)(nil)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale with its lines
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Sale, error) {
	var sale document.Sale
	return firstOrNotFound(r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id), &sale)
}

// FindByIDForUpdate locks the sale row for the posting transaction
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.Sale, error) {
	var sale document.Sale
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", id).
		Order("created_at ASC").
		Find(&sale.Lines).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindByNumber finds a sale by its unique number
func (r *GormSaleRepository) FindByNumber(ctx context.Context, number string) (*document.Sale, error) {
	var sale document.Sale
	return firstOrNotFound(r.db.WithContext(ctx).Preload("Lines").Where("number = ?", number), &sale)
}

// FindAll lists sales, newest first
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]document.Sale, error) {
	var sales []document.Sale
	if err := r.db.WithContext(ctx).
		Order("date DESC, created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// Save creates or updates a sale and its lines
func (r *GormSaleRepository) Save(ctx context.Context, sale *document.Sale) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(sale).Error
}

var _ document.SaleRepository = (*GormSaleRepository)(nil)

// GormPurchaseReturnRepository implements PurchaseReturnRepository using GORM
type GormPurchaseReturnRepository struct {
	db *gorm.DB
}

// NewGormPurchaseReturnRepository creates a new GormPurchaseReturnRepository
func NewGormPurchaseReturnRepository(db *gorm.DB) *GormPurchaseReturnRepository {
	return &GormPurchaseReturnRepository{db: db}
}

// FindByID finds a return with its lines
func (r *GormPurchaseReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.PurchaseReturn, error) {
	var ret document.PurchaseReturn
	return firstOrNotFound(r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id), &ret)
}

// FindByIDForUpdate locks the return row for the posting transaction
func (r *GormPurchaseReturnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.PurchaseReturn, error) {
	var ret document.PurchaseReturn
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&ret).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("return_id = ?", id).
		Order("created_at ASC").
		Find(&ret.Lines).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

// FindByPurchase lists returns raised against one purchase
func (r *GormPurchaseReturnRepository) FindByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]document.PurchaseReturn, error) {
	var returns []document.PurchaseReturn
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("purchase_id = ?", purchaseID).
		Order("created_at ASC").
		Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// SumReturnedQuantity totals posted return quantity against one original line
func (r *GormPurchaseReturnRepository) SumReturnedQuantity(ctx context.Context, originalLineID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&document.PurchaseReturnLine{}).
		Joins("JOIN purchase_returns ON purchase_returns.id = purchase_return_lines.return_id").
		Where("purchase_return_lines.original_line_id = ? AND purchase_returns.status IN ?",
			originalLineID, []string{document.StatusApproved.String(), document.StatusCompleted.String()}).
		Select("SUM(purchase_return_lines.quantity)").
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// Save creates or updates a return and its lines
func (r *GormPurchaseReturnRepository) Save(ctx context.Context, ret *document.PurchaseReturn) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(ret).Error
}

var _ document.PurchaseReturnRepository = (*GormPurchaseReturnRepository)(nil)

// GormSaleReturnRepository implements SaleReturnRepository using GORM
type GormSaleReturnRepository struct {
	db *gorm.DB
}

// NewGormSaleReturnRepository creates a new GormSaleReturnRepository
func NewGormSaleReturnRepository(db *gorm.DB) *GormSaleReturnRepository {
	return &GormSaleReturnRepository{db: db}
}

// FindByID finds a return with its lines
func (r *GormSaleReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.SaleReturn, error) {
	var ret document.SaleReturn
	return firstOrNotFound(r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id), &ret)
}

// FindByIDForUpdate locks the return row for the posting transaction
func (r *GormSaleReturnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.SaleReturn, error) {
	var ret document.SaleReturn
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&ret).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("return_id = ?", id).
		Order("created_at ASC").
		Find(&ret.Lines).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

// FindBySale lists returns raised against one sale
func (r *GormSaleReturnRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]document.SaleReturn, error) {
	var returns []document.SaleReturn
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// SumReturnedQuantity totals posted return quantity against one original line
func (r *GormSaleReturnRepository) SumReturnedQuantity(ctx context.Context, originalLineID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&document.SaleReturnLine{}).
		Joins("JOIN sale_returns ON sale_returns.id = sale_return_lines.return_id").
		Where("sale_return_lines.original_line_id = ? AND sale_returns.status IN ?",
			originalLineID, []string{document.StatusApproved.String(), document.StatusCompleted.String()}).
		Select("SUM(sale_return_lines.quantity)").
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// Save creates or updates a return and its lines
func (r *GormSaleReturnRepository) Save(ctx context.Context, ret *document.SaleReturn) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(ret).Error
}

var _ document.SaleReturnRepository = (*GormSaleReturnRepository)(nil)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Payment, error) {
	var payment document.Payment
	return firstOrNotFound(r.db.WithContext(ctx).Where("id = ?", id), &payment)
}

// FindByIDForUpdate locks the payment row for the posting transaction
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.Payment, error) {
	var payment document.Payment
	return firstOrNotFound(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id), &payment)
}

// FindByParty lists payments for one party, newest first
func (r *GormPaymentRepository) FindByParty(ctx context.Context, partyID uuid.UUID, filter shared.Filter) ([]document.Payment, error) {
	var payments []document.Payment
	if err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("date DESC, created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *document.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

var _ document.PaymentRepository = (*GormPaymentRepository)(nil)

// GormBankTransactionRepository implements BankTransactionRepository using GORM
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// FindByID finds a bank transaction by its ID
func (r *GormBankTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.BankTransaction, error) {
	var tx document.BankTransaction
	return firstOrNotFound(r.db.WithContext(ctx).Where("id = ?", id), &tx)
}

// FindByIDForUpdate locks the transaction row for the posting transaction
func (r *GormBankTransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.BankTransaction, error) {
	var tx document.BankTransaction
	return firstOrNotFound(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id), &tx)
}

// FindAll lists bank transactions, newest first
func (r *GormBankTransactionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]document.BankTransaction, error) {
	var txs []document.BankTransaction
	if err := r.db.WithContext(ctx).
		Order("date DESC, created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Save creates or updates a bank transaction
func (r *GormBankTransactionRepository) Save(ctx context.Context, tx *document.BankTransaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

var _ document.BankTransactionRepository = (*GormBankTransactionRepository)(nil)

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Expense, error) {
	var expense document.Expense
	return firstOrNotFound(r.db.WithContext(ctx).Where("id = ?", id), &expense)
}

// FindByIDForUpdate locks the expense row for the posting transaction
func (r *GormExpenseRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.Expense, error) {
	var expense document.Expense
	return firstOrNotFound(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id), &expense)
}

// FindAll lists expenses, newest first
func (r *GormExpenseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]document.Expense, error) {
	var expenses []document.Expense
	if err := r.db.WithContext(ctx).
		Order("date DESC, created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *document.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

var _ document.ExpenseRepository = (*GormExpenseRepository)(nil)

// GormQuotationRepository implements QuotationRepository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

// FindByID finds a quotation with its lines
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Quotation, error) {
	var quotation document.Quotation
	return firstOrNotFound(r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id), &quotation)
}

// FindByIDForUpdate locks the quotation row so conversion happens at most once
func (r *GormQuotationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*document.Quotation, error) {
	var quotation document.Quotation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&quotation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("quotation_id = ?", id).
		Order("created_at ASC").
		Find(&quotation.Lines).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

// FindByCustomer lists a customer's quotations, newest first
func (r *GormQuotationRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]document.Quotation, error) {
	var quotations []document.Quotation
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("date DESC, created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&quotations).Error; err != nil {
		return nil, err
	}
	return quotations, nil
}

// Save creates or updates a quotation and its lines
func (r *GormQuotationRepository) Save(ctx context.Context, quotation *document.Quotation) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(quotation).Error
}

var _ document.QuotationRepository = (*GormQuotationRepository)(nil)
