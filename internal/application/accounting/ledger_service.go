package accounting

import (
	"context"
	"time"

	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/accounting"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService owns the append-only journal. Batches are validated
// before any row is written, so the ledger can never hold a partial or
// unbalanced posting.
type LedgerService struct {
	scope  scope.TransactionScope
	logger *zap.Logger
}

// NewLedgerService creates a ledger service
func NewLedgerService(txScope scope.TransactionScope, logger *zap.Logger) *LedgerService {
	return &LedgerService{scope: txScope, logger: logger}
}

// Post validates and writes a batch in its own transaction
func (s *LedgerService) Post(ctx context.Context, batch *accounting.PostingBatch) error {
	return s.scope.Execute(ctx, func(repos scope.Repositories) error {
		return s.PostIn(ctx, repos, batch)
	})
}

// PostIn validates and writes a batch inside an already-open transaction.
// Document posting uses this variant so journal rows commit or roll back
// together with the document's stock movements.
func (s *LedgerService) PostIn(ctx context.Context, repos scope.Repositories, batch *accounting.PostingBatch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	for _, line := range batch.Lines {
		account, err := repos.Accounts().FindByID(ctx, line.AccountID)
		if err != nil {
			if shared.IsNotFound(err) {
				return shared.NewReferentialGapError("account", line.AccountID)
			}
			return err
		}
		if !account.Active {
			return shared.NewDomainError("INACTIVE_ACCOUNT", "Account "+account.Code+" is inactive")
		}
	}

	if err := repos.Journal().AppendAll(ctx, batch.Entries()); err != nil {
		return err
	}

	s.logger.Info("journal batch posted",
		zap.String("reference", batch.Reference.String()),
		zap.Int("lines", len(batch.Lines)),
		zap.String("total", batch.TotalDebits().String()),
	)
	return nil
}

// BalanceOf computes an account's balance as of a date (all entries when
// asOf is nil), applying the account type's sign convention.
func (s *LedgerService) BalanceOf(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		account, err := repos.Accounts().FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		debits, credits, err := repos.Journal().SumDebitCredit(ctx, accountID, asOf)
		if err != nil {
			return err
		}
		balance = account.BalanceFrom(debits, credits)
		return nil
	})
	return balance, err
}

// TrialBalance computes the balance of every active account as of a date.
// The sum of raw debit and credit magnitudes is equal by construction;
// the per-account signed balances are what reports consume.
func (s *LedgerService) TrialBalance(ctx context.Context, asOf *time.Time) ([]AccountBalance, error) {
	var balances []AccountBalance
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		accounts, err := repos.Accounts().FindAllActive(ctx)
		if err != nil {
			return err
		}
		balances = make([]AccountBalance, 0, len(accounts))
		for i := range accounts {
			debits, credits, err := repos.Journal().SumDebitCredit(ctx, accounts[i].ID, asOf)
			if err != nil {
				return err
			}
			balances = append(balances, AccountBalance{
				AccountID:   accounts[i].ID,
				AccountCode: accounts[i].Code,
				AccountName: accounts[i].Name,
				AccountType: accounts[i].Type,
				Debits:      debits,
				Credits:     credits,
				Balance:     accounts[i].BalanceFrom(debits, credits),
			})
		}
		return nil
	})
	return balances, err
}

// Entries lists an account's journal entries, newest first
func (s *LedgerService) Entries(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]accounting.JournalEntry, error) {
	var entries []accounting.JournalEntry
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		entries, err = repos.Journal().FindByAccount(ctx, accountID, filter)
		return err
	})
	return entries, err
}

// EntriesByReference lists the journal entries one document posted
func (s *LedgerService) EntriesByReference(ctx context.Context, ref shared.DocumentReference) ([]accounting.JournalEntry, error) {
	var entries []accounting.JournalEntry
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		entries, err = repos.Journal().FindByReference(ctx, ref)
		return err
	})
	return entries, err
}

// AccountBalance is one row of a trial balance
type AccountBalance struct {
	AccountID   uuid.UUID
	AccountCode string
	AccountName string
	AccountType accounting.AccountType
	Debits      decimal.Decimal
	Credits     decimal.Decimal
	Balance     decimal.Decimal
}
