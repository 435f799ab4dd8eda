package shared

import (
	"github.com/google/uuid"
)

// ReferenceKind identifies the business document a journal entry or stock
// movement originates from. Modelled as an explicit enum paired with a typed
// id instead of an untyped polymorphic foreign key.
type ReferenceKind string

const (
	ReferencePurchase        ReferenceKind = "purchase"
	ReferenceSale            ReferenceKind = "sale"
	ReferencePurchaseReturn  ReferenceKind = "purchase_return"
	ReferenceSaleReturn      ReferenceKind = "sale_return"
	ReferencePayment         ReferenceKind = "payment"
	ReferenceBankTransaction ReferenceKind = "bank_transaction"
	ReferenceExpense         ReferenceKind = "expense"
	ReferenceAdjustment      ReferenceKind = "adjustment"
	ReferenceTransfer        ReferenceKind = "transfer"
)

// IsValid checks if the reference kind is known
func (k ReferenceKind) IsValid() bool {
	switch k {
	case ReferencePurchase, ReferenceSale, ReferencePurchaseReturn, ReferenceSaleReturn,
		ReferencePayment, ReferenceBankTransaction, ReferenceExpense,
		ReferenceAdjustment, ReferenceTransfer:
		return true
	}
	return false
}

// String returns the string representation
func (k ReferenceKind) String() string {
	return string(k)
}

// DocumentReference is a tagged union pointing at the originating document
type DocumentReference struct {
	Kind ReferenceKind `gorm:"column:reference_kind;type:varchar(32);not null;index:idx_reference"`
	ID   uuid.UUID     `gorm:"column:reference_id;type:uuid;not null;index:idx_reference"`
}

// NewDocumentReference creates a document reference
func NewDocumentReference(kind ReferenceKind, id uuid.UUID) (DocumentReference, error) {
	if !kind.IsValid() {
		return DocumentReference{}, NewDomainError("INVALID_REFERENCE_KIND", "Unknown document reference kind: "+string(kind))
	}
	if id == uuid.Nil {
		return DocumentReference{}, NewDomainError("INVALID_REFERENCE_ID", "Document reference ID cannot be empty")
	}
	return DocumentReference{Kind: kind, ID: id}, nil
}

// IsZero returns true when the reference is unset
func (r DocumentReference) IsZero() bool {
	return r.Kind == "" && r.ID == uuid.Nil
}

// String returns "kind/id" for logging
func (r DocumentReference) String() string {
	return string(r.Kind) + "/" + r.ID.String()
}
