package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/recupera/backend/internal/models"
	"github.com/recupera/backend/internal/services/rates"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxRateHandler handles withholding-rate table maintenance
type TaxRateHandler struct {
	db       *gorm.DB
	resolver *rates.Resolver
}

// NewTaxRateHandler creates a new tax rate handler
func NewTaxRateHandler(db *gorm.DB) *TaxRateHandler {
	return &TaxRateHandler{db: db, resolver: rates.NewResolver(db)}
}

// TaxRateRequest represents a create/update request for a rate row
type TaxRateRequest struct {
	ActivityCode  string          `json:"activity_code" binding:"required"`
	Description   string          `json:"description"`
	TaxType       models.TaxType  `json:"tax_type" binding:"required"`
	Percentage    decimal.Decimal `json:"percentage" binding:"required"`
	MinimumValue  decimal.Decimal `json:"minimum_value"`
	EffectiveFrom string          `json:"effective_from" binding:"required"` // YYYY-MM-DD
	EffectiveTo   string          `json:"effective_to"`
}

func (r TaxRateRequest) toModel() (models.TaxRate, error) {
	effectiveFrom, err := time.Parse("2006-01-02", r.EffectiveFrom)
	if err != nil {
		return models.TaxRate{}, err
	}

	rate := models.TaxRate{
		ActivityCode:  r.ActivityCode,
		Description:   r.Description,
		TaxType:       r.TaxType,
		Percentage:    r.Percentage,
		MinimumValue:  r.MinimumValue,
		EffectiveFrom: effectiveFrom,
	}
	if r.EffectiveTo != "" {
		effectiveTo, err := time.Parse("2006-01-02", r.EffectiveTo)
		if err != nil {
			return models.TaxRate{}, err
		}
		rate.EffectiveTo = &effectiveTo
	}
	return rate, nil
}

var validTaxTypes = map[models.TaxType]bool{
	models.TaxTypeIRRF: true,
	models.TaxTypeISS:  true,
	models.TaxTypeCSRF: true,
	models.TaxTypeINSS: true,
}

// CreateTaxRate creates a rate row, rejecting overlapping effective
// windows for the same activity code
func (h *TaxRateHandler) CreateTaxRate(c *gin.Context) {
	var req TaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validTaxTypes[req.TaxType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tax type"})
		return
	}
	if req.Percentage.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "percentage must not be negative"})
		return
	}

	rate, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	overlaps, err := h.resolver.Overlaps(rate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if overlaps {
		c.JSON(http.StatusConflict, gin.H{"error": "effective window overlaps an existing rate for this activity code"})
		return
	}

	if err := h.db.Create(&rate).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "tax_rate": rate})
}

// GetTaxRates lists rate rows, optionally filtered by activity code
func (h *TaxRateHandler) GetTaxRates(c *gin.Context) {
	query := h.db.Order("activity_code, effective_from")
	if code := c.Query("activity_code"); code != "" {
		query = query.Where("activity_code = ?", code)
	}
	if taxType := c.Query("tax_type"); taxType != "" {
		query = query.Where("tax_type = ?", taxType)
	}

	var taxRates []models.TaxRate
	if err := query.Find(&taxRates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tax_rates": taxRates})
}

// UpdateTaxRate updates a rate row, keeping the no-overlap invariant
func (h *TaxRateHandler) UpdateTaxRate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tax rate id"})
		return
	}

	var existing models.TaxRate
	if err := h.db.First(&existing, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tax rate not found"})
		return
	}

	var req TaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validTaxTypes[req.TaxType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tax type"})
		return
	}

	rate, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	rate.ID = existing.ID
	rate.CreatedAt = existing.CreatedAt

	overlaps, err := h.resolver.Overlaps(rate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if overlaps {
		c.JSON(http.StatusConflict, gin.H{"error": "effective window overlaps an existing rate for this activity code"})
		return
	}

	if err := h.db.Save(&rate).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "tax_rate": rate})
}

// DeleteTaxRate soft-deletes a rate row
func (h *TaxRateHandler) DeleteTaxRate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tax rate id"})
		return
	}

	if err := h.db.Delete(&models.TaxRate{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
