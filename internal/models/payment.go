package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment represents a disbursement a client made to a supplier.
// Payments come from upstream data imports and are immutable once an
// audit result references them.
type Payment struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ClientID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"client_id"`
	Client       Client          `gorm:"foreignKey:ClientID" json:"-"`
	SupplierCNPJ string          `gorm:"type:varchar(14);index;not null" json:"supplier_cnpj"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentDate  time.Time       `gorm:"type:date;not null;index" json:"payment_date"`
	Description  string          `gorm:"type:text" json:"description"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}
