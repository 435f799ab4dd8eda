package shared

import (
	"github.com/google/uuid"
)

// BaseAggregateRoot adds an optimistic-locking version to BaseEntity.
// Documents bump the version on every posting transition so stale
// writes lose.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// AuditedAggregateRoot extends BaseAggregateRoot with creator tracking.
// The engine never assumes caller identity beyond what is passed explicitly.
type AuditedAggregateRoot struct {
	BaseAggregateRoot
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
}

// NewAuditedAggregateRoot creates a new aggregate root with creator info
func NewAuditedAggregateRoot(createdBy uuid.UUID) AuditedAggregateRoot {
	root := AuditedAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
	}
	if createdBy != uuid.Nil {
		root.CreatedBy = &createdBy
	}
	return root
}

// GetCreatedBy returns the creator user ID
func (a *AuditedAggregateRoot) GetCreatedBy() *uuid.UUID {
	return a.CreatedBy
}
