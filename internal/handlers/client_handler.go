package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/recupera/backend/internal/models"
	"gorm.io/gorm"
)

// ClientHandler handles client CRUD requests
type ClientHandler struct {
	db *gorm.DB
}

// NewClientHandler creates a new client handler
func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

// CreateClientRequest represents a request to create a client
type CreateClientRequest struct {
	CNPJ        string              `json:"cnpj" binding:"required"`
	LegalName   string              `json:"legal_name" binding:"required"`
	TradeName   string              `json:"trade_name"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone"`
	ContactName string              `json:"contact_name"`
	City        string              `json:"city"`
	State       string              `json:"state"`
	Status      models.ClientStatus `json:"status"`
}

// CreateClient creates a new client
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidCNPJ(req.CNPJ) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cnpj: expected 14 digits"})
		return
	}

	client := models.Client{
		CNPJ:        models.SanitizeCNPJ(req.CNPJ),
		LegalName:   req.LegalName,
		TradeName:   req.TradeName,
		Email:       req.Email,
		Phone:       req.Phone,
		ContactName: req.ContactName,
		City:        req.City,
		State:       req.State,
		Status:      req.Status,
	}
	if client.Status == "" {
		client.Status = models.ClientStatusActive
	}

	if err := h.db.Create(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "client": client})
}

// GetClients lists all clients
func (h *ClientHandler) GetClients(c *gin.Context) {
	var clients []models.Client
	query := h.db.Order("legal_name")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// GetClient returns one client by id
func (h *ClientHandler) GetClient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return
	}

	var client models.Client
	if err := h.db.First(&client, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

// UpdateClient updates a client
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return
	}

	var client models.Client
	if err := h.db.First(&client, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}

	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidCNPJ(req.CNPJ) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cnpj: expected 14 digits"})
		return
	}

	client.CNPJ = models.SanitizeCNPJ(req.CNPJ)
	client.LegalName = req.LegalName
	client.TradeName = req.TradeName
	client.Email = req.Email
	client.Phone = req.Phone
	client.ContactName = req.ContactName
	client.City = req.City
	client.State = req.State
	if req.Status != "" {
		client.Status = req.Status
	}

	if err := h.db.Save(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "client": client})
}

// DeleteClient soft-deletes a client
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return
	}

	if err := h.db.Delete(&models.Client{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
