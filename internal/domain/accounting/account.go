package accounting

import (
	"strings"
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies a chart-of-accounts node
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// IsValid checks if the account type is known
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation
func (t AccountType) String() string {
	return string(t)
}

// IsDebitNormal returns true for account types whose balance grows with
// debits. The ledger stores raw debit/credit magnitudes; the sign
// convention is applied when computing balances.
func (t AccountType) IsDebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account is a chart-of-accounts node. Accounts form a tree via ParentID,
// but balances are computed per node; parent aggregation is a read-side
// concern outside the engine.
type Account struct {
	shared.AuditedAggregateRoot
	Code           string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name           string          `gorm:"type:varchar(128);not null"`
	Type           AccountType     `gorm:"type:varchar(16);not null;index"`
	SubType        *string         `gorm:"type:varchar(64)"`
	ParentID       *uuid.UUID      `gorm:"type:uuid;index"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active         bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates a new account
func NewAccount(code, name string, accountType AccountType, openingBalance decimal.Decimal) (*Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Account code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Unknown account type: "+string(accountType))
	}

	return &Account{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(uuid.Nil),
		Code:                 code,
		Name:                 name,
		Type:                 accountType,
		OpeningBalance:       openingBalance,
		Active:               true,
	}, nil
}

// SetParent places the account under a parent node
func (a *Account) SetParent(parentID uuid.UUID) error {
	if parentID == uuid.Nil {
		return shared.NewDomainError("INVALID_PARENT", "Parent account ID cannot be empty")
	}
	if parentID == a.ID {
		return shared.NewDomainError("INVALID_PARENT", "Account cannot be its own parent")
	}
	a.ParentID = &parentID
	a.UpdatedAt = time.Now()
	return nil
}

// SetSubType assigns the optional sub-type label
func (a *Account) SetSubType(subType string) {
	a.SubType = &subType
	a.UpdatedAt = time.Now()
}

// Deactivate marks the account inactive for new postings
func (a *Account) Deactivate() {
	a.Active = false
	a.UpdatedAt = time.Now()
}

// BalanceFrom computes the account balance given summed debit and credit
// magnitudes: opening + debits - credits for debit-normal accounts, the
// mirrored sign otherwise.
func (a *Account) BalanceFrom(debits, credits decimal.Decimal) decimal.Decimal {
	if a.Type.IsDebitNormal() {
		return a.OpeningBalance.Add(debits).Sub(credits)
	}
	return a.OpeningBalance.Add(credits).Sub(debits)
}
