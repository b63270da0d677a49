package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/recupera/backend/internal/models"
	"github.com/recupera/backend/internal/queue"
	"github.com/recupera/backend/internal/services/audit"
	"github.com/recupera/backend/internal/services/registry"
	"gorm.io/gorm"
)

// AuditBatchPayload identifies the payments a background enrichment or
// audit job should cover
type AuditBatchPayload struct {
	PaymentIDs []uuid.UUID `json:"payment_ids"`
}

// RegisterAuditJobHandlers wires the enrichment and audit batch jobs
// into the queue
func RegisterAuditJobHandlers(q *queue.Queue, db *gorm.DB, enrichmentSvc *registry.EnrichmentService, auditSvc *audit.Service) {
	q.RegisterHandler(queue.JobTypeEnrichSuppliers, func(ctx context.Context, job queue.Job) (interface{}, error) {
		payments, err := loadPayments(db, job.Payload)
		if err != nil {
			return nil, err
		}
		return enrichmentSvc.EnrichSuppliers(ctx, payments)
	})

	q.RegisterHandler(queue.JobTypeRunAudit, func(ctx context.Context, job queue.Job) (interface{}, error) {
		payments, err := loadPayments(db, job.Payload)
		if err != nil {
			return nil, err
		}
		return auditSvc.RunAudit(ctx, payments)
	})
}

func loadPayments(db *gorm.DB, rawPayload json.RawMessage) ([]models.Payment, error) {
	var payload AuditBatchPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return nil, fmt.Errorf("invalid job payload: %w", err)
	}
	if len(payload.PaymentIDs) == 0 {
		return nil, fmt.Errorf("job payload has no payment ids")
	}

	var payments []models.Payment
	if err := db.Where("id IN ?", payload.PaymentIDs).Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	if len(payments) != len(payload.PaymentIDs) {
		return nil, fmt.Errorf("payload references %d payments but only %d exist", len(payload.PaymentIDs), len(payments))
	}
	return payments, nil
}
