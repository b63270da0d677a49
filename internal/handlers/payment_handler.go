package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/recupera/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentHandler handles payment import and CRUD requests
type PaymentHandler struct {
	db *gorm.DB
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{db: db}
}

// PaymentInput represents one payment row in an import
type PaymentInput struct {
	SupplierCNPJ string          `json:"supplier_cnpj" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate  string          `json:"payment_date" binding:"required"` // YYYY-MM-DD
	Description  string          `json:"description"`
}

// ImportPaymentsRequest represents a batch import for a client
type ImportPaymentsRequest struct {
	ClientID uuid.UUID      `json:"client_id" binding:"required"`
	Payments []PaymentInput `json:"payments" binding:"required,min=1"`
}

// ImportPayments inserts a batch of payments for a client
func (h *PaymentHandler) ImportPayments(c *gin.Context) {
	var req ImportPaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var client models.Client
	if err := h.db.First(&client, "id = ?", req.ClientID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}

	payments := make([]models.Payment, 0, len(req.Payments))
	for i, input := range req.Payments {
		if !models.ValidCNPJ(input.SupplierCNPJ) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier cnpj", "row": i})
			return
		}
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive", "row": i})
			return
		}
		paymentDate, err := time.Parse("2006-01-02", input.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_date, expected YYYY-MM-DD", "row": i})
			return
		}
		payments = append(payments, models.Payment{
			ClientID:     req.ClientID,
			SupplierCNPJ: models.SanitizeCNPJ(input.SupplierCNPJ),
			Amount:       input.Amount,
			PaymentDate:  paymentDate,
			Description:  input.Description,
		})
	}

	if err := h.db.Create(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "imported": len(payments), "payments": payments})
}

// GetPayments lists payments filtered by client and date range
func (h *PaymentHandler) GetPayments(c *gin.Context) {
	query := h.db.Order("payment_date DESC")
	if clientID := c.Query("client_id"); clientID != "" {
		id, err := uuid.Parse(clientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
			return
		}
		query = query.Where("client_id = ?", id)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("payment_date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("payment_date <= ?", to)
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// GetPayment returns one payment by id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	var payment models.Payment
	if err := h.db.First(&payment, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// DeletePayment removes a payment that no audit result references yet
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	var audited int64
	if err := h.db.Model(&models.AuditResult{}).Where("payment_id = ?", id).Count(&audited).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if audited > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "payment already referenced by audit results"})
		return
	}

	if err := h.db.Delete(&models.Payment{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
