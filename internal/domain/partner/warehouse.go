package partner

import (
	"strings"
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Warehouse is a storage location. Stock is always scoped to a warehouse.
type Warehouse struct {
	shared.AuditedAggregateRoot
	Code    string `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name    string `gorm:"type:varchar(128);not null"`
	Address string `gorm:"type:varchar(255)"`
	Active  bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new warehouse
func NewWarehouse(code, name string) (*Warehouse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}
	return &Warehouse{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(uuid.Nil),
		Code:                 code,
		Name:                 name,
		Active:               true,
	}, nil
}

// Deactivate marks the warehouse inactive
func (w *Warehouse) Deactivate() {
	w.Active = false
	w.UpdatedAt = time.Now()
}
