package accounting

import (
	"context"
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account persistence
type AccountRepository interface {
	// FindByID finds an account by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByCode finds an account by its unique code
	FindByCode(ctx context.Context, code string) (*Account, error)

	// FindAllActive returns all active accounts
	FindAllActive(ctx context.Context) ([]Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error

	// Exists checks whether an account exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// JournalEntryRepository is the append-only store of journal entries.
// No update or delete is exposed.
type JournalEntryRepository interface {
	// AppendAll writes a validated batch's entries
	AppendAll(ctx context.Context, entries []JournalEntry) error

	// SumDebitCredit sums debit and credit magnitudes for an account up to
	// and including the given date (all entries when asOf is nil)
	SumDebitCredit(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (debits, credits decimal.Decimal, err error)

	// FindByAccount lists entries for an account, newest first
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]JournalEntry, error)

	// FindByReference lists the entries posted by one document
	FindByReference(ctx context.Context, ref shared.DocumentReference) ([]JournalEntry, error)
}
