package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxType identifies which tax a withholding rate belongs to
type TaxType string

const (
	TaxTypeIRRF TaxType = "IRRF" // withholding income tax
	TaxTypeISS  TaxType = "ISS"  // municipal service tax
	TaxTypeCSRF TaxType = "CSRF" // PIS/COFINS/CSLL social contributions
	TaxTypeINSS TaxType = "INSS"
)

// TaxRate is a withholding-rate row keyed by CNAE activity code.
// Rows are effective-dated: a nil EffectiveTo means the rate is still
// current. For any activity code, effective windows must not overlap,
// so at most one row resolves for a given payment date.
type TaxRate struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ActivityCode  string          `gorm:"type:varchar(10);index;not null" json:"activity_code"`
	Description   string          `gorm:"type:varchar(255)" json:"description"`
	TaxType       TaxType         `gorm:"type:varchar(10);not null" json:"tax_type"`
	Percentage    decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"percentage"`
	MinimumValue  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"minimum_value"`
	EffectiveFrom time.Time       `gorm:"type:date;not null;index" json:"effective_from"`
	EffectiveTo   *time.Time      `gorm:"type:date;index" json:"effective_to"`
	CreatedAt     time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ActiveOn reports whether the rate's effective window covers the date
func (r TaxRate) ActiveOn(date time.Time) bool {
	if date.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && date.After(*r.EffectiveTo) {
		return false
	}
	return true
}
