package shared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// IsNotFound reports whether an error is the not-found sentinel
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// InsufficientStockError is raised when a withdrawal exceeds the available
// quantity for a product in a warehouse. It aborts the whole document.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s in warehouse %s: requested %s, available %s",
		e.ProductID, e.WarehouseID, e.Requested, e.Available)
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(productID, warehouseID uuid.UUID, requested, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Requested:   requested,
		Available:   available,
	}
}

// UnbalancedLedgerError is raised when a posting batch's debits do not equal
// its credits. This is always a programming error and is never recovered.
type UnbalancedLedgerError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *UnbalancedLedgerError) Error() string {
	return fmt.Sprintf("unbalanced ledger posting: debits %s != credits %s", e.Debits, e.Credits)
}

// NewUnbalancedLedgerError creates an UnbalancedLedgerError
func NewUnbalancedLedgerError(debits, credits decimal.Decimal) *UnbalancedLedgerError {
	return &UnbalancedLedgerError{Debits: debits, Credits: credits}
}

// DuplicatePostingError is raised when a document in a posted state is
// approved again. The second call writes nothing.
type DuplicatePostingError struct {
	DocumentKind ReferenceKind
	DocumentID   uuid.UUID
	Status       string
}

func (e *DuplicatePostingError) Error() string {
	return fmt.Sprintf("%s %s already posted (status %s)", e.DocumentKind, e.DocumentID, e.Status)
}

// NewDuplicatePostingError creates a DuplicatePostingError
func NewDuplicatePostingError(kind ReferenceKind, id uuid.UUID, status string) *DuplicatePostingError {
	return &DuplicatePostingError{DocumentKind: kind, DocumentID: id, Status: status}
}

// ReferentialGapError is raised when a document references an account,
// product or warehouse that does not exist. Upstream validation should
// prevent this; the engine rejects rather than creating phantom rows.
type ReferentialGapError struct {
	Kind string
	ID   uuid.UUID
}

func (e *ReferentialGapError) Error() string {
	return fmt.Sprintf("referenced %s %s does not exist", e.Kind, e.ID)
}

// NewReferentialGapError creates a ReferentialGapError
func NewReferentialGapError(kind string, id uuid.UUID) *ReferentialGapError {
	return &ReferentialGapError{Kind: kind, ID: id}
}
