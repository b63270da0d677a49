package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientStatus represents the engagement status of a recovery client
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusProspect ClientStatus = "prospect"
)

// Client represents a company contracting the tax recovery service
type Client struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CNPJ         string         `gorm:"type:varchar(14);uniqueIndex;not null" json:"cnpj"`
	LegalName    string         `gorm:"type:varchar(255);not null" json:"legal_name"`
	TradeName    string         `gorm:"type:varchar(255)" json:"trade_name"`
	Email        string         `gorm:"type:varchar(255)" json:"email"`
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`
	ContactName  string         `gorm:"type:varchar(150)" json:"contact_name"`
	City         string         `gorm:"type:varchar(100)" json:"city"`
	State        string         `gorm:"type:varchar(2)" json:"state"`
	Status       ClientStatus   `gorm:"type:varchar(20);default:'active'" json:"status"`
	Observations string         `gorm:"type:text" json:"observations"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
