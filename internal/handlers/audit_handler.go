package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/recupera/backend/internal/jobs"
	"github.com/recupera/backend/internal/models"
	"github.com/recupera/backend/internal/queue"
	"github.com/recupera/backend/internal/services/audit"
	"github.com/recupera/backend/internal/services/registry"
	"gorm.io/gorm"
)

// AuditHandler exposes the enrichment and audit batch entry points
type AuditHandler struct {
	db            *gorm.DB
	enrichmentSvc *registry.EnrichmentService
	auditSvc      *audit.Service
	jobQueue      *queue.Queue
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(db *gorm.DB, enrichmentSvc *registry.EnrichmentService, auditSvc *audit.Service, jobQueue *queue.Queue) *AuditHandler {
	return &AuditHandler{
		db:            db,
		enrichmentSvc: enrichmentSvc,
		auditSvc:      auditSvc,
		jobQueue:      jobQueue,
	}
}

// BatchRequest selects the payments a batch operation covers: either an
// explicit id list or every payment of a client inside a date range
type BatchRequest struct {
	PaymentIDs []uuid.UUID `json:"payment_ids"`
	ClientID   *uuid.UUID  `json:"client_id"`
	From       string      `json:"from"` // YYYY-MM-DD
	To         string      `json:"to"`
}

// loadBatch resolves a BatchRequest to payment rows
func (h *AuditHandler) loadBatch(c *gin.Context) ([]models.Payment, bool) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	query := h.db.Order("payment_date")
	switch {
	case len(req.PaymentIDs) > 0:
		query = query.Where("id IN ?", req.PaymentIDs)
	case req.ClientID != nil:
		query = query.Where("client_id = ?", *req.ClientID)
		if req.From != "" {
			query = query.Where("payment_date >= ?", req.From)
		}
		if req.To != "" {
			query = query.Where("payment_date <= ?", req.To)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_ids or client_id required"})
		return nil, false
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if len(payments) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no payments match the batch selection"})
		return nil, false
	}
	return payments, true
}

// EnrichSuppliers runs registry enrichment for a payment batch.
// Individual lookup failures are reported, never treated as a request
// failure.
func (h *AuditHandler) EnrichSuppliers(c *gin.Context) {
	payments, ok := h.loadBatch(c)
	if !ok {
		return
	}

	report, err := h.enrichmentSvc.EnrichSuppliers(c.Request.Context(), payments)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "report": report})
}

// RunAudit audits a payment batch synchronously
func (h *AuditHandler) RunAudit(c *gin.Context) {
	payments, ok := h.loadBatch(c)
	if !ok {
		return
	}

	results, err := h.auditSvc.RunAudit(c.Request.Context(), payments)
	if err != nil {
		var notFound *audit.SupplierNotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": notFound.Error(),
				"cnpj":  notFound.CNPJ,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": results})
}

// RunAuditAsync enqueues an audit batch as a background job
func (h *AuditHandler) RunAuditAsync(c *gin.Context) {
	payments, ok := h.loadBatch(c)
	if !ok {
		return
	}

	ids := make([]uuid.UUID, len(payments))
	for i, payment := range payments {
		ids[i] = payment.ID
	}

	jobID, err := h.jobQueue.EnqueueJob(queue.JobTypeRunAudit, jobs.AuditBatchPayload{PaymentIDs: ids})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "job_id": jobID, "payments": len(ids)})
}

// GetJob returns the state of a queued batch job
func (h *AuditHandler) GetJob(c *gin.Context) {
	job, err := h.jobQueue.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

// GetAuditResults lists audit results in a date range, optionally
// filtered by client
func (h *AuditHandler) GetAuditResults(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.DefaultQuery("from", "1970-01-01"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.DefaultQuery("to", "2999-12-31"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD"})
		return
	}
	to = to.Add(24*time.Hour - time.Nanosecond)

	var clientID *uuid.UUID
	if raw := c.Query("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
			return
		}
		clientID = &id
	}

	results, err := h.auditSvc.Results(from, to, clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
