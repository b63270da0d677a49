package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/recupera/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProposalHandler handles commercial proposal requests
type ProposalHandler struct {
	db *gorm.DB
}

// NewProposalHandler creates a new proposal handler
func NewProposalHandler(db *gorm.DB) *ProposalHandler {
	return &ProposalHandler{db: db}
}

// ProposalRequest represents a create/update request for a proposal
type ProposalRequest struct {
	ClientID       uuid.UUID       `json:"client_id" binding:"required"`
	Title          string          `json:"title" binding:"required"`
	Description    string          `json:"description"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	FeePercentage  decimal.Decimal `json:"fee_percentage"`
	ValidUntil     string          `json:"valid_until"` // YYYY-MM-DD
}

// CreateProposal creates a draft proposal with a shareable slug
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	var req ProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var client models.Client
	if err := h.db.First(&client, "id = ?", req.ClientID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}

	proposal := models.Proposal{
		ClientID:       req.ClientID,
		Title:          req.Title,
		Slug:           slug.Make(req.Title) + "-" + uuid.NewString()[:8],
		Description:    req.Description,
		EstimatedValue: req.EstimatedValue,
		FeePercentage:  req.FeePercentage,
		Status:         models.ProposalStatusDraft,
	}
	if req.ValidUntil != "" {
		validUntil, err := time.Parse("2006-01-02", req.ValidUntil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid valid_until, expected YYYY-MM-DD"})
			return
		}
		proposal.ValidUntil = &validUntil
	}

	if err := h.db.Create(&proposal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "proposal": proposal})
}

// GetProposals lists proposals, optionally filtered by client or status
func (h *ProposalHandler) GetProposals(c *gin.Context) {
	query := h.db.Order("created_at DESC")
	if clientID := c.Query("client_id"); clientID != "" {
		id, err := uuid.Parse(clientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
			return
		}
		query = query.Where("client_id = ?", id)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var proposals []models.Proposal
	if err := query.Find(&proposals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// GetProposalBySlug returns a proposal by its shareable slug
func (h *ProposalHandler) GetProposalBySlug(c *gin.Context) {
	var proposal models.Proposal
	if err := h.db.First(&proposal, "slug = ?", c.Param("slug")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposal": proposal})
}

// SendProposal moves a draft proposal to sent
func (h *ProposalHandler) SendProposal(c *gin.Context) {
	h.transition(c, models.ProposalStatusDraft, models.ProposalStatusSent)
}

// DecideProposalRequest carries the accept/decline decision
type DecideProposalRequest struct {
	Accepted bool `json:"accepted"`
}

// DecideProposal records the client's decision on a sent proposal
func (h *ProposalHandler) DecideProposal(c *gin.Context) {
	var req DecideProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := models.ProposalStatusDeclined
	if req.Accepted {
		target = models.ProposalStatusAccepted
	}
	h.transition(c, models.ProposalStatusSent, target)
}

// transition enforces the draft -> sent -> accepted/declined workflow
func (h *ProposalHandler) transition(c *gin.Context, from, to models.ProposalStatus) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	var proposal models.Proposal
	if err := h.db.First(&proposal, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
		return
	}
	if proposal.Status != from {
		c.JSON(http.StatusConflict, gin.H{"error": "proposal is not in status " + string(from)})
		return
	}

	now := time.Now()
	proposal.Status = to
	if to == models.ProposalStatusSent {
		proposal.SentAt = &now
	} else {
		proposal.DecidedAt = &now
	}

	if err := h.db.Save(&proposal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "proposal": proposal})
}
