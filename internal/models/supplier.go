package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier represents a business entity that received payments from a
// client. Registry-sourced fields are filled by enrichment and are only
// refreshed through the same path, never through the CRUD surface.
type Supplier struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CNPJ               string         `gorm:"type:varchar(14);uniqueIndex;not null" json:"cnpj"`
	LegalName          string         `gorm:"type:varchar(255)" json:"legal_name"`
	TradeName          string         `gorm:"type:varchar(255)" json:"trade_name"`
	MainActivityCode   string         `gorm:"type:varchar(10);index" json:"main_activity_code"`
	MainActivityDesc   string         `gorm:"type:varchar(255)" json:"main_activity_desc"`
	LegalNature        string         `gorm:"type:varchar(150)" json:"legal_nature"`
	CompanySize        string         `gorm:"type:varchar(50)" json:"company_size"`
	TaxRegime          string         `gorm:"type:varchar(50)" json:"tax_regime"`
	Street             string         `gorm:"type:varchar(255)" json:"street"`
	Number             string         `gorm:"type:varchar(20)" json:"number"`
	Complement         string         `gorm:"type:varchar(100)" json:"complement"`
	District           string         `gorm:"type:varchar(100)" json:"district"`
	City               string         `gorm:"type:varchar(100)" json:"city"`
	State              string         `gorm:"type:varchar(2)" json:"state"`
	PostalCode         string         `gorm:"type:varchar(10)" json:"postal_code"`
	RegistryFetchedAt  *time.Time     `json:"registry_fetched_at"`
	CreatedAt          time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// SanitizeCNPJ strips everything but digits from a CNPJ string
func SanitizeCNPJ(cnpj string) string {
	var b strings.Builder
	for _, r := range cnpj {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCNPJ reports whether the string reduces to exactly 14 digits
func ValidCNPJ(cnpj string) bool {
	return len(SanitizeCNPJ(cnpj)) == 14
}

// FormatCNPJ renders a 14-digit CNPJ as XX.XXX.XXX/XXXX-XX for display.
// Anything that is not 14 digits is returned unchanged.
func FormatCNPJ(cnpj string) string {
	digits := SanitizeCNPJ(cnpj)
	if len(digits) != 14 {
		return cnpj
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s",
		digits[0:2], digits[2:5], digits[5:8], digits[8:12], digits[12:14])
}
