package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProposalStatus tracks a commercial proposal through its workflow
type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusSent     ProposalStatus = "sent"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusDeclined ProposalStatus = "declined"
)

// Proposal represents a commercial proposal offered to a prospective
// client. The slug makes the proposal addressable by a shareable link.
type Proposal struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ClientID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"client_id"`
	Client         Client          `gorm:"foreignKey:ClientID" json:"-"`
	Title          string          `gorm:"type:varchar(255);not null" json:"title"`
	Slug           string          `gorm:"type:varchar(120);uniqueIndex" json:"slug"`
	Description    string          `gorm:"type:text" json:"description"`
	EstimatedValue decimal.Decimal `gorm:"type:decimal(20,2)" json:"estimated_value"`
	FeePercentage  decimal.Decimal `gorm:"type:decimal(10,4)" json:"fee_percentage"`
	Status         ProposalStatus  `gorm:"type:varchar(20);default:'draft'" json:"status"`
	ValidUntil     *time.Time      `gorm:"type:date" json:"valid_until"`
	SentAt         *time.Time      `json:"sent_at"`
	DecidedAt      *time.Time      `json:"decided_at"`
	CreatedAt      time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}
