package audit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/recupera/backend/internal/models"
	"github.com/recupera/backend/internal/services/rates"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SupplierNotFoundError aborts an audit batch: the payment references a
// CNPJ that was never enriched into the local supplier table. Callers
// are expected to run enrichment first.
type SupplierNotFoundError struct {
	CNPJ string
}

func (e *SupplierNotFoundError) Error() string {
	return fmt.Sprintf("supplier %s not found; run supplier enrichment before auditing", models.FormatCNPJ(e.CNPJ))
}

// Service runs withholding audits over payment batches
type Service struct {
	db       *gorm.DB
	resolver *rates.Resolver
}

// NewService creates an audit service
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:       db,
		resolver: rates.NewResolver(db),
	}
}

// RunAudit audits a payment batch and persists one result per payment
// in a single bulk insert. A payment whose activity code has no rate
// produces an error-status result and the batch continues; a payment
// whose supplier is unknown aborts the whole batch before anything is
// persisted.
func (s *Service) RunAudit(ctx context.Context, payments []models.Payment) ([]models.AuditResult, error) {
	if len(payments) == 0 {
		return nil, nil
	}

	suppliers, err := s.suppliersForBatch(payments)
	if err != nil {
		return nil, err
	}

	auditedAt := time.Now()
	results := make([]models.AuditResult, 0, len(payments))
	for _, payment := range payments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		supplier := suppliers[models.SanitizeCNPJ(payment.SupplierCNPJ)]

		taxRate, err := s.resolver.Resolve(supplier, payment.PaymentDate)
		if err != nil {
			if errors.Is(err, rates.ErrRateNotFound) {
				results = append(results, models.AuditResult{
					PaymentID:      payment.ID,
					SupplierID:     supplier.ID,
					OriginalAmount: payment.Amount,
					TaxValue:       decimal.Zero,
					NetValue:       payment.Amount,
					Status:         models.AuditStatusError,
					Observations:   fmt.Sprintf("rate not found for activity %s", supplier.MainActivityCode),
					AuditedAt:      auditedAt,
				})
				continue
			}
			return nil, err
		}

		calc := Calculate(payment.Amount, *taxRate)
		result := models.AuditResult{
			PaymentID:      payment.ID,
			SupplierID:     supplier.ID,
			TaxRateID:      &taxRate.ID,
			OriginalAmount: payment.Amount,
			AppliedRate:    taxRate.Percentage,
			TaxValue:       calc.TaxValue,
			NetValue:       calc.NetValue,
			TaxType:        taxRate.TaxType,
			Status:         calc.Status,
			AuditedAt:      auditedAt,
		}
		if calc.Status == models.AuditStatusExempt {
			result.Observations = fmt.Sprintf("amount below minimum value %s, no withholding applied", taxRate.MinimumValue.StringFixed(2))
		}
		results = append(results, result)
	}

	if err := s.db.Create(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to persist audit results: %w", err)
	}
	log.Printf("audit: persisted %d results for batch of %d payments", len(results), len(payments))
	return results, nil
}

// RunAuditForClient audits every payment of a client, optionally
// bounded by payment date
func (s *Service) RunAuditForClient(ctx context.Context, clientID uuid.UUID, from, to *time.Time) ([]models.AuditResult, error) {
	query := s.db.Where("client_id = ?", clientID)
	if from != nil {
		query = query.Where("payment_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("payment_date <= ?", *to)
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return s.RunAudit(ctx, payments)
}

// Results returns audit results inside a date range, optionally
// filtered by the owning client
func (s *Service) Results(from, to time.Time, clientID *uuid.UUID) ([]models.AuditResult, error) {
	query := s.db.
		Where("audit_results.audited_at >= ? AND audit_results.audited_at <= ?", from, to).
		Order("audit_results.audited_at DESC")
	if clientID != nil {
		query = query.
			Joins("JOIN payments ON payments.id = audit_results.payment_id").
			Where("payments.client_id = ?", *clientID)
	}

	var results []models.AuditResult
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// suppliersForBatch loads every supplier the batch references, keyed by
// CNPJ. A missing supplier fails the whole batch here, before any
// result is computed or persisted.
func (s *Service) suppliersForBatch(payments []models.Payment) (map[string]models.Supplier, error) {
	seen := make(map[string]bool)
	var cnpjs []string
	for _, payment := range payments {
		digits := models.SanitizeCNPJ(payment.SupplierCNPJ)
		if !seen[digits] {
			seen[digits] = true
			cnpjs = append(cnpjs, digits)
		}
	}

	var suppliers []models.Supplier
	if err := s.db.Where("cnpj IN ?", cnpjs).Find(&suppliers).Error; err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}

	byCNPJ := make(map[string]models.Supplier, len(suppliers))
	for _, supplier := range suppliers {
		byCNPJ[supplier.CNPJ] = supplier
	}

	for _, cnpj := range cnpjs {
		if _, ok := byCNPJ[cnpj]; !ok {
			return nil, &SupplierNotFoundError{CNPJ: cnpj}
		}
	}
	return byCNPJ, nil
}
