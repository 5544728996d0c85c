package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxPurchase TransactionType = "PURCHASE"
	TxSale     TransactionType = "SALE"
)

type TransactionStatus string

const (
	TxCompleted TransactionStatus = "COMPLETED"
	TxPending   TransactionStatus = "PENDING"
)

// Transaction sources (how the weights were captured)
const (
	SourceKeyboard = "KEYBOARD"
	SourceScale    = "SCALE"
)

// Transaction is a multi-line purchase: one client, N material lines.
// Created once, atomically, together with its details and the per-line
// stock increments and IN movements; never mutated afterwards.
type Transaction struct {
	BaseModel
	Folio       string            `gorm:"type:varchar(20);uniqueIndex;not null" json:"folio"` // F-<year>-<6-digit-seq>
	Type        TransactionType   `gorm:"type:varchar(10);not null" json:"type"`
	Status      TransactionStatus `gorm:"type:varchar(10);not null" json:"status"`
	Source      string            `gorm:"type:varchar(10);not null;default:'KEYBOARD'" json:"source"`
	Notes       string            `gorm:"type:text" json:"notes,omitempty"`
	TotalWeight decimal.Decimal   `gorm:"type:numeric(14,3);not null" json:"total_weight"` // Σ line quantity, kg
	TotalAmount decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"total_amount"` // Σ line subtotal

	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Client   *Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Details []TransactionDetail `gorm:"foreignKey:TransactionID" json:"details,omitempty"`
}

// TransactionDetail is one material line of a transaction.
// Subtotal = Quantity * UnitPrice, computed with decimal arithmetic.
type TransactionDetail struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	MaterialID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"material_id"`
	Material      *Material       `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
	Position      int             `gorm:"not null" json:"position"` // preserves line order
	Quantity      decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
}

func (d *TransactionDetail) BeforeCreate(tx *gorm.DB) (err error) {
	d.ID = uuid.New()
	return
}

func (TransactionDetail) TableName() string {
	return "transaction_details"
}
