package accounting

import (
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/ledgercore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalEntry is one immutable debit or credit row. Entries are created
// only through a validated PostingBatch and are never updated or deleted;
// corrections are new reversing entries.
type JournalEntry struct {
	shared.BaseEntity
	AccountID uuid.UUID                `gorm:"type:uuid;not null;index"`
	Date      time.Time                `gorm:"not null;index"`
	Reference shared.DocumentReference `gorm:"embedded"`
	Debit     decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Credit    decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedBy *uuid.UUID               `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// PostingLine is one side of an economic event inside a batch.
// Exactly one of Debit/Credit is non-zero per line.
type PostingLine struct {
	AccountID uuid.UUID
	Debit     valueobject.Money
	Credit    valueobject.Money
}

// PostingBatch collects the debit/credit lines for one economic event.
// The batch must balance before any row is written.
type PostingBatch struct {
	Date      time.Time
	Reference shared.DocumentReference
	CreatedBy uuid.UUID
	Lines     []PostingLine
}

// NewPostingBatch creates an empty posting batch for a document
func NewPostingBatch(date time.Time, ref shared.DocumentReference, createdBy uuid.UUID) *PostingBatch {
	return &PostingBatch{
		Date:      date,
		Reference: ref,
		CreatedBy: createdBy,
		Lines:     make([]PostingLine, 0, 4),
	}
}

// Debit appends a debit line. Zero amounts are skipped so optional lines
// (tax, discounts) can be added unconditionally.
func (b *PostingBatch) Debit(accountID uuid.UUID, amount valueobject.Money) *PostingBatch {
	if !amount.IsZero() {
		b.Lines = append(b.Lines, PostingLine{AccountID: accountID, Debit: amount, Credit: valueobject.ZeroMoney()})
	}
	return b
}

// Credit appends a credit line, skipping zero amounts
func (b *PostingBatch) Credit(accountID uuid.UUID, amount valueobject.Money) *PostingBatch {
	if !amount.IsZero() {
		b.Lines = append(b.Lines, PostingLine{AccountID: accountID, Debit: valueobject.ZeroMoney(), Credit: amount})
	}
	return b
}

// TotalDebits sums the debit side of the batch
func (b *PostingBatch) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, line := range b.Lines {
		total = total.Add(line.Debit.Amount())
	}
	return total
}

// TotalCredits sums the credit side of the batch
func (b *PostingBatch) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, line := range b.Lines {
		total = total.Add(line.Credit.Amount())
	}
	return total
}

// Validate enforces the double-entry invariants: every line single-sided
// and positive, at least two lines, and debits equal to credits.
func (b *PostingBatch) Validate() error {
	if b.Reference.IsZero() {
		return shared.NewDomainError("INVALID_REFERENCE", "Posting batch requires a document reference")
	}
	if len(b.Lines) < 2 {
		return shared.NewDomainError("EMPTY_POSTING", "Posting batch requires at least one debit and one credit line")
	}
	for _, line := range b.Lines {
		if line.AccountID == uuid.Nil {
			return shared.NewDomainError("INVALID_ACCOUNT", "Posting line account ID cannot be empty")
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", "Posting amounts cannot be negative")
		}
		debitSet := !line.Debit.IsZero()
		creditSet := !line.Credit.IsZero()
		if debitSet == creditSet {
			return shared.NewDomainError("INVALID_LINE", "Exactly one of debit/credit must be non-zero per line")
		}
	}

	debits := b.TotalDebits()
	credits := b.TotalCredits()
	if !debits.Equal(credits) {
		return shared.NewUnbalancedLedgerError(debits, credits)
	}
	return nil
}

// Entries materializes the batch into immutable journal entries.
// Validate must have succeeded first.
func (b *PostingBatch) Entries() []JournalEntry {
	entries := make([]JournalEntry, 0, len(b.Lines))
	for _, line := range b.Lines {
		entry := JournalEntry{
			BaseEntity: shared.NewBaseEntity(),
			AccountID:  line.AccountID,
			Date:       b.Date,
			Reference:  b.Reference,
			Debit:      line.Debit.Amount(),
			Credit:     line.Credit.Amount(),
		}
		if b.CreatedBy != uuid.Nil {
			createdBy := b.CreatedBy
			entry.CreatedBy = &createdBy
		}
		entries = append(entries, entry)
	}
	return entries
}
