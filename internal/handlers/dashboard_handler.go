package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recupera/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardHandler serves the aggregate widgets of the admin dashboard
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

type taxTypeTotal struct {
	TaxType  models.TaxType  `json:"tax_type"`
	Total    decimal.Decimal `json:"total"`
	Payments int64           `json:"payments"`
}

type statusCount struct {
	Status models.AuditStatus `json:"status"`
	Count  int64              `json:"count"`
}

type topSupplier struct {
	SupplierID string          `json:"supplier_id"`
	LegalName  string          `json:"legal_name"`
	CNPJ       string          `json:"cnpj"`
	Total      decimal.Decimal `json:"total"`
}

// GetSummary returns recoverable totals by tax type, audit counts by
// status and the suppliers with the most retained value
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	var byTaxType []taxTypeTotal
	if err := h.db.Model(&models.AuditResult{}).
		Select("tax_type, SUM(tax_value) AS total, COUNT(*) AS payments").
		Where("status IN ?", []models.AuditStatus{models.AuditStatusProcessed}).
		Group("tax_type").
		Scan(&byTaxType).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var byStatus []statusCount
	if err := h.db.Model(&models.AuditResult{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var topSuppliers []topSupplier
	if err := h.db.Model(&models.AuditResult{}).
		Select("audit_results.supplier_id, suppliers.legal_name, suppliers.cnpj, SUM(audit_results.tax_value) AS total").
		Joins("JOIN suppliers ON suppliers.id = audit_results.supplier_id").
		Where("audit_results.status = ?", models.AuditStatusProcessed).
		Group("audit_results.supplier_id, suppliers.legal_name, suppliers.cnpj").
		Order("total DESC").
		Limit(10).
		Scan(&topSuppliers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for i := range topSuppliers {
		topSuppliers[i].CNPJ = models.FormatCNPJ(topSuppliers[i].CNPJ)
	}

	c.JSON(http.StatusOK, gin.H{
		"recoverable_by_tax_type": byTaxType,
		"audits_by_status":        byStatus,
		"top_suppliers":           topSuppliers,
	})
}
