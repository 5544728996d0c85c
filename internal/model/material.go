package model

import (
	"github.com/shopspring/decimal"
)

// MaxMaterialPrice is the upper bound for a per-kg price.
var MaxMaterialPrice = decimal.RequireFromString("999999.99")

// Material is one entry of the scrap catalog. Stock is mutated only through
// ledger-producing operations (adjustments and transaction postings); every
// change gets a matching InventoryMovement row.
type Material struct {
	BaseModel
	Code        string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"code" validate:"required,material_code"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name" validate:"required,min=2,max=100"`
	Category    string          `gorm:"type:varchar(50);not null" json:"category" validate:"required,min=2,max=50"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"price"` // per kg
	Stock       decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"stock"` // kg
	IsActive    bool            `gorm:"default:true" json:"is_active"`

	// Relations
	Movements []InventoryMovement `gorm:"foreignKey:MaterialID" json:"movements,omitempty" validate:"-"`
}
