package catalog

import (
	"strings"
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog aggregate root. Identity (SKU, barcode) is immutable
// once the product is referenced by stock lots or document lines.
type Product struct {
	shared.AuditedAggregateRoot
	SKU        string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Barcode    *string         `gorm:"type:varchar(64);uniqueIndex"`
	Name       string          `gorm:"type:varchar(255);not null"`
	Unit       string          `gorm:"type:varchar(32);not null"`
	CategoryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	MinStock   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Price      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CostPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate    decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	Active     bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(sku, name, unit string, categoryID uuid.UUID, createdBy uuid.UUID) (*Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category ID cannot be empty")
	}

	return &Product{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		SKU:                  sku,
		Name:                 name,
		Unit:                 unit,
		CategoryID:           categoryID,
		MinStock:             decimal.Zero,
		Price:                decimal.Zero,
		CostPrice:            decimal.Zero,
		TaxRate:              decimal.Zero,
		Active:               true,
	}, nil
}

// SetBarcode assigns the optional barcode
func (p *Product) SetBarcode(barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot be empty")
	}
	p.Barcode = &barcode
	p.UpdatedAt = time.Now()
	return nil
}

// SetMinStock sets the minimum stock threshold used for low-stock alerts
func (p *Product) SetMinStock(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum stock cannot be negative")
	}
	p.MinStock = quantity
	p.UpdatedAt = time.Now()
	return nil
}

// SetPricing sets sale price, cost price and tax rate
func (p *Product) SetPricing(price, costPrice, taxRate decimal.Decimal) error {
	if price.IsNegative() || costPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}
	if taxRate.IsNegative() {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}
	p.Price = price
	p.CostPrice = costPrice
	p.TaxRate = taxRate
	p.UpdatedAt = time.Now()
	return nil
}

// Deactivate marks the product inactive; identity stays referenced by history
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}

// HasLowStockThreshold returns true when a minimum stock level is configured
func (p *Product) HasLowStockThreshold() bool {
	return p.MinStock.GreaterThan(decimal.Zero)
}

// Category groups products
type Category struct {
	shared.BaseEntity
	Name     string     `gorm:"type:varchar(128);not null;uniqueIndex"`
	ParentID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category
func NewCategory(name string, parentID *uuid.UUID) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		ParentID:   parentID,
	}, nil
}
