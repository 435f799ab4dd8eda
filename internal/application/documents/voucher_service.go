package documents

import (
	"context"
	"time"

	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/accounting"
	"github.com/ledgercore/backend/internal/domain/document"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/ledgercore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreatePaymentInput describes a new draft payment voucher
type CreatePaymentInput struct {
	Number    string
	Direction document.PaymentDirection
	PartyID   uuid.UUID
	AccountID uuid.UUID
	Amount    decimal.Decimal
	Date      time.Time
	Memo      string
	ActorID   uuid.UUID
}

// CreatePayment builds and stores a draft payment
func (e *Engine) CreatePayment(ctx context.Context, input CreatePaymentInput) (*document.Payment, error) {
	payment, err := document.NewPayment(input.Number, input.Direction, input.PartyID, input.AccountID, input.Amount, input.Date, input.ActorID)
	if err != nil {
		return nil, err
	}
	payment.Memo = input.Memo

	err = e.scope.Execute(ctx, func(repos scope.Repositories) error {
		if err := e.checkAccountRef(ctx, repos, input.AccountID); err != nil {
			return err
		}
		return repos.Payments().Save(ctx, payment)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ApprovePayment posts a payment: inbound debits the settlement account
// and credits receivable, outbound debits payable and credits it
func (e *Engine) ApprovePayment(ctx context.Context, paymentID, actorID uuid.UUID) (*document.Payment, error) {
	var payment *document.Payment

	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		payment, err = repos.Payments().FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := payment.Approve(); err != nil {
			return err
		}

		accounts, err := e.resolveAccounts(ctx, repos)
		if err != nil {
			return err
		}

		amount := valueobject.NewMoney(payment.Amount)
		batch := accounting.NewPostingBatch(payment.Date, payment.Reference(), actorID)
		if payment.Direction == document.PaymentIn {
			batch.Debit(payment.AccountID, amount).Credit(accounts.Receivable, amount)
		} else {
			batch.Debit(accounts.Payable, amount).Credit(payment.AccountID, amount)
		}
		if err := e.ledger.PostIn(ctx, repos, batch); err != nil {
			return err
		}

		return repos.Payments().Save(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("payment posted",
		zap.String("payment_id", paymentID.String()),
		zap.String("direction", string(payment.Direction)),
		zap.String("amount", payment.Amount.String()),
	)
	return payment, nil
}

// CreateBankTransactionInput describes a new draft bank voucher
type CreateBankTransactionInput struct {
	Number        string
	Kind          document.BankTransactionKind
	BankAccountID uuid.UUID
	CashAccountID uuid.UUID
	Amount        decimal.Decimal
	Date          time.Time
	Memo          string
	ActorID       uuid.UUID
}

// CreateBankTransaction builds and stores a draft bank voucher
func (e *Engine) CreateBankTransaction(ctx context.Context, input CreateBankTransactionInput) (*document.BankTransaction, error) {
	tx, err := document.NewBankTransaction(input.Number, input.Kind, input.BankAccountID, input.CashAccountID, input.Amount, input.Date, input.ActorID)
	if err != nil {
		return nil, err
	}
	tx.Memo = input.Memo

	err = e.scope.Execute(ctx, func(repos scope.Repositories) error {
		if err := e.checkAccountRef(ctx, repos, input.BankAccountID); err != nil {
			return err
		}
		if err := e.checkAccountRef(ctx, repos, input.CashAccountID); err != nil {
			return err
		}
		return repos.BankTransactions().Save(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ApproveBankTransaction posts a bank voucher: a deposit moves money
// from cash to bank, a withdrawal the other way
func (e *Engine) ApproveBankTransaction(ctx context.Context, transactionID, actorID uuid.UUID) (*document.BankTransaction, error) {
	var tx *document.BankTransaction

	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		tx, err = repos.BankTransactions().FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if err := tx.Approve(); err != nil {
			return err
		}

		amount := valueobject.NewMoney(tx.Amount)
		batch := accounting.NewPostingBatch(tx.Date, tx.Reference(), actorID)
		if tx.Kind == document.BankDeposit {
			batch.Debit(tx.BankAccountID, amount).Credit(tx.CashAccountID, amount)
		} else {
			batch.Debit(tx.CashAccountID, amount).Credit(tx.BankAccountID, amount)
		}
		if err := e.ledger.PostIn(ctx, repos, batch); err != nil {
			return err
		}

		return repos.BankTransactions().Save(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("bank transaction posted",
		zap.String("transaction_id", transactionID.String()),
		zap.String("kind", string(tx.Kind)),
		zap.String("amount", tx.Amount.String()),
	)
	return tx, nil
}

// CreateExpenseInput describes a new draft expense voucher
type CreateExpenseInput struct {
	Number           string
	ExpenseAccountID uuid.UUID
	PaidFromID       uuid.UUID
	Amount           decimal.Decimal
	Date             time.Time
	Memo             string
	ActorID          uuid.UUID
}

// CreateExpense builds and stores a draft expense. The debited account
// must be an expense-type account.
func (e *Engine) CreateExpense(ctx context.Context, input CreateExpenseInput) (*document.Expense, error) {
	expense, err := document.NewExpense(input.Number, input.ExpenseAccountID, input.PaidFromID, input.Amount, input.Date, input.ActorID)
	if err != nil {
		return nil, err
	}
	expense.Memo = input.Memo

	err = e.scope.Execute(ctx, func(repos scope.Repositories) error {
		account, err := repos.Accounts().FindByID(ctx, input.ExpenseAccountID)
		if err != nil {
			if shared.IsNotFound(err) {
				return shared.NewReferentialGapError("account", input.ExpenseAccountID)
			}
			return err
		}
		if account.Type != accounting.AccountTypeExpense {
			return shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account "+account.Code+" is not an expense account")
		}
		if err := e.checkAccountRef(ctx, repos, input.PaidFromID); err != nil {
			return err
		}
		return repos.Expenses().Save(ctx, expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ApproveExpense posts an expense: the expense account is debited and
// the paying account credited
func (e *Engine) ApproveExpense(ctx context.Context, expenseID, actorID uuid.UUID) (*document.Expense, error) {
	var expense *document.Expense

	err := e.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		expense, err = repos.Expenses().FindByIDForUpdate(ctx, expenseID)
		if err != nil {
			return err
		}
		if err := expense.Approve(); err != nil {
			return err
		}

		amount := valueobject.NewMoney(expense.Amount)
		batch := accounting.NewPostingBatch(expense.Date, expense.Reference(), actorID).
			Debit(expense.ExpenseAccountID, amount).
			Credit(expense.PaidFromID, amount)
		if err := e.ledger.PostIn(ctx, repos, batch); err != nil {
			return err
		}

		return repos.Expenses().Save(ctx, expense)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("expense posted",
		zap.String("expense_id", expenseID.String()),
		zap.String("amount", expense.Amount.String()),
	)
	return expense, nil
}

func (e *Engine) checkAccountRef(ctx context.Context, repos scope.Repositories, accountID uuid.UUID) error {
	ok, err := repos.Accounts().Exists(ctx, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NewReferentialGapError("account", accountID)
	}
	return nil
}
