package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/recupera/backend/internal/models"
	"gorm.io/gorm"
)

// SupplierHandler handles supplier requests. Registry-sourced fields
// are read-only here; they change only through enrichment.
type SupplierHandler struct {
	db *gorm.DB
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(db *gorm.DB) *SupplierHandler {
	return &SupplierHandler{db: db}
}

// CreateSupplierRequest represents a manual supplier registration,
// used when a supplier is known before any registry enrichment ran
type CreateSupplierRequest struct {
	CNPJ             string `json:"cnpj" binding:"required"`
	LegalName        string `json:"legal_name"`
	TradeName        string `json:"trade_name"`
	MainActivityCode string `json:"main_activity_code"`
	MainActivityDesc string `json:"main_activity_desc"`
	TaxRegime        string `json:"tax_regime"`
}

// UpdateSupplierRequest covers the fields the CRUD surface may touch
type UpdateSupplierRequest struct {
	TradeName string `json:"trade_name"`
	TaxRegime string `json:"tax_regime"`
}

// CreateSupplier registers a supplier manually
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidCNPJ(req.CNPJ) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cnpj: expected 14 digits"})
		return
	}

	supplier := models.Supplier{
		CNPJ:             models.SanitizeCNPJ(req.CNPJ),
		LegalName:        req.LegalName,
		TradeName:        req.TradeName,
		MainActivityCode: req.MainActivityCode,
		MainActivityDesc: req.MainActivityDesc,
		TaxRegime:        req.TaxRegime,
	}
	if err := h.db.Create(&supplier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "supplier": supplier})
}

// GetSuppliers lists suppliers, optionally filtered by activity code
func (h *SupplierHandler) GetSuppliers(c *gin.Context) {
	query := h.db.Order("legal_name")
	if code := c.Query("activity_code"); code != "" {
		query = query.Where("main_activity_code = ?", code)
	}
	if cnpj := c.Query("cnpj"); cnpj != "" {
		query = query.Where("cnpj = ?", models.SanitizeCNPJ(cnpj))
	}

	var suppliers []models.Supplier
	if err := query.Find(&suppliers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

// GetSupplier returns one supplier with its display-formatted CNPJ
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier id"})
		return
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"supplier":       supplier,
		"cnpj_formatted": models.FormatCNPJ(supplier.CNPJ),
	})
}

// UpdateSupplier updates the non-registry supplier fields
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier id"})
		return
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
		return
	}

	var req UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	supplier.TradeName = req.TradeName
	supplier.TaxRegime = req.TaxRegime
	if err := h.db.Save(&supplier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "supplier": supplier})
}
