package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditStatus is the terminal outcome of auditing one payment
type AuditStatus string

const (
	AuditStatusProcessed AuditStatus = "processed"
	AuditStatusExempt    AuditStatus = "exempt"
	AuditStatusError     AuditStatus = "error"
	AuditStatusCancelled AuditStatus = "cancelled"
)

// AuditResult records the withholding computed for a single payment in
// one audit run. Rows are append-only: re-auditing a payment creates a
// new row rather than mutating the old one.
type AuditResult struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	PaymentID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"payment_id"`
	Payment        Payment         `gorm:"foreignKey:PaymentID" json:"-"`
	SupplierID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"supplier_id"`
	Supplier       Supplier        `gorm:"foreignKey:SupplierID" json:"-"`
	TaxRateID      *uuid.UUID      `gorm:"type:uuid" json:"tax_rate_id,omitempty"`
	TaxRate        *TaxRate        `gorm:"foreignKey:TaxRateID" json:"-"`
	OriginalAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"original_amount"`
	AppliedRate    decimal.Decimal `gorm:"type:decimal(10,4)" json:"applied_rate"`
	TaxValue       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"tax_value"`
	NetValue       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"net_value"`
	TaxType        TaxType         `gorm:"type:varchar(10)" json:"tax_type"`
	Status         AuditStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Observations   string          `gorm:"type:text" json:"observations"`
	AuditedAt      time.Time       `gorm:"not null;index" json:"audited_at"`
	CreatedAt      time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
