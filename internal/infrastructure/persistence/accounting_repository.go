package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/ledgercore/backend/internal/domain/accounting"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Account, error) {
	var account accounting.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByCode finds an account by its unique code
func (r *GormAccountRepository) FindByCode(ctx context.Context, code string) (*accounting.Account, error) {
	var account accounting.Account
	if err := r.db.WithContext(ctx).First(&account, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAllActive returns all active accounts ordered by code
func (r *GormAccountRepository) FindAllActive(ctx context.Context) ([]accounting.Account, error) {
	var accounts []accounting.Account
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *accounting.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// Exists checks whether an account exists
func (r *GormAccountRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&accounting.Account{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ accounting.AccountRepository = (*GormAccountRepository)(nil)

// GormJournalEntryRepository implements JournalEntryRepository using GORM.
// The store is append-only: no update or delete paths exist.
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

// AppendAll writes a validated batch's entries in one statement
func (r *GormJournalEntryRepository) AppendAll(ctx context.Context, entries []accounting.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// SumDebitCredit sums debit and credit magnitudes for an account up to
// and including the given date
func (r *GormJournalEntryRepository) SumDebitCredit(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (decimal.Decimal, decimal.Decimal, error) {
	type sums struct {
		Debits  decimal.NullDecimal
		Credits decimal.NullDecimal
	}

	query := r.db.WithContext(ctx).
		Model(&accounting.JournalEntry{}).
		Where("account_id = ?", accountID)
	if asOf != nil {
		query = query.Where("date <= ?", *asOf)
	}

	var result sums
	if err := query.Select("SUM(debit) AS debits, SUM(credit) AS credits").Scan(&result).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	debits := decimal.Zero
	credits := decimal.Zero
	if result.Debits.Valid {
		debits = result.Debits.Decimal
	}
	if result.Credits.Valid {
		credits = result.Credits.Decimal
	}
	return debits, credits, nil
}

// FindByAccount lists entries for an account, newest first
func (r *GormJournalEntryRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]accounting.JournalEntry, error) {
	var entries []accounting.JournalEntry
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("date DESC, created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByReference lists the entries posted by one document
func (r *GormJournalEntryRepository) FindByReference(ctx context.Context, ref shared.DocumentReference) ([]accounting.JournalEntry, error) {
	var entries []accounting.JournalEntry
	if err := r.db.WithContext(ctx).
		Where("reference_kind = ? AND reference_id = ?", ref.Kind, ref.ID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

var _ accounting.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
