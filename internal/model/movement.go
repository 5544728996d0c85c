package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementAdjust MovementType = "ADJUST"
)

// InventoryMovement is one append-only ledger row for a material. Quantity is
// signed (negative for OUT, delta for ADJUST) and Balance snapshots the stock
// immediately after the movement was posted. Rows are never updated or
// deleted; replaying them in creation order reconstructs the current stock.
type InventoryMovement struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;index" json:"material_id"`
	Material   *Material       `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
	Type       MovementType    `gorm:"type:varchar(10);not null" json:"type"`
	Quantity   decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	Balance    decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"balance"`
	Reference  string          `gorm:"type:varchar(255)" json:"reference,omitempty"` // folio or free text
	CreatedAt  time.Time       `json:"created_at"`
}

func (m *InventoryMovement) BeforeCreate(tx *gorm.DB) (err error) {
	m.ID = uuid.New()
	return
}

func (InventoryMovement) TableName() string {
	return "inventory_movements"
}
