package model

// Client is a scrap supplier. Document/phone/email are optional but
// format-validated when present; email and document are unique across the
// registry. Clients are soft-disabled via IsActive, never hard-deleted.
type Client struct {
	BaseModel
	Name         string  `gorm:"type:varchar(100);not null" json:"name" validate:"required,min=2,max=100"`
	DocumentType *string `gorm:"type:varchar(20)" json:"document_type,omitempty"`
	Document     *string `gorm:"type:varchar(50);uniqueIndex" json:"document,omitempty" validate:"omitempty,min=5,max=50"`
	Address      *string `gorm:"type:varchar(255)" json:"address,omitempty"`
	Phone        *string `gorm:"type:varchar(20)" json:"phone,omitempty" validate:"omitempty,phone"`
	Email        *string `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty" validate:"omitempty,email"`
	IsActive     bool    `gorm:"default:true" json:"is_active"`

	// Relations
	Transactions []Transaction `gorm:"foreignKey:ClientID" json:"transactions,omitempty" validate:"-"`
}
