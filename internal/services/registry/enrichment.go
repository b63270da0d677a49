package registry

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/recupera/backend/internal/config"
	"github.com/recupera/backend/internal/models"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// RecordCache caches registry records keyed by CNPJ. Implementations
// must be safe to call with a nil receiver guard upstream; the service
// treats a nil cache as disabled.
type RecordCache interface {
	Get(ctx context.Context, cnpj string) (*Record, bool)
	Set(ctx context.Context, cnpj string, record *Record)
}

// LookupFailure records one identifier that could not be enriched
type LookupFailure struct {
	CNPJ  string `json:"cnpj"`
	Error string `json:"error"`
}

// EnrichmentReport summarizes one enrichment run. Failures are
// informational: they never fail the run itself.
type EnrichmentReport struct {
	Known    int             `json:"known"`
	Created  []string        `json:"created"`
	Failures []LookupFailure `json:"failures"`
	Skipped  []string        `json:"skipped"`
}

// EnrichmentService discovers suppliers referenced by payment batches
// that are not yet stored locally, fetching them from the registry one
// at a time with a fixed pacing interval.
type EnrichmentService struct {
	db                *gorm.DB
	client            Lookuper
	cache             RecordCache
	limiter           *rate.Limiter
	maxConsecutive429 int
}

// NewEnrichmentService creates an enrichment service. cache may be nil.
func NewEnrichmentService(db *gorm.DB, client Lookuper, cache RecordCache, cfg config.RegistryConfig) *EnrichmentService {
	interval := time.Duration(cfg.LookupIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	maxConsecutive := cfg.MaxConsecutive429
	if maxConsecutive <= 0 {
		maxConsecutive = 3
	}

	return &EnrichmentService{
		db:                db,
		client:            client,
		cache:             cache,
		limiter:           rate.NewLimiter(rate.Every(interval), 1),
		maxConsecutive429: maxConsecutive,
	}
}

// EnrichSuppliers ensures every supplier referenced by the batch exists
// locally. Lookups go out sequentially, paced by the configured
// interval, and individual failures never abort the remaining
// identifiers. The only error returned is context cancellation.
func (s *EnrichmentService) EnrichSuppliers(ctx context.Context, payments []models.Payment) (*EnrichmentReport, error) {
	report := &EnrichmentReport{}

	missing, failures := s.missingCNPJs(payments, report)
	report.Failures = append(report.Failures, failures...)

	consecutive429 := 0
	for i, cnpj := range missing {
		if consecutive429 >= s.maxConsecutive429 {
			report.Skipped = append(report.Skipped, missing[i:]...)
			log.Printf("enrichment: breaker tripped after %d consecutive rate-limited responses, skipping %d lookups", consecutive429, len(missing)-i)
			break
		}

		if s.cache != nil {
			if record, ok := s.cache.Get(ctx, cnpj); ok {
				s.persistRecord(record, report)
				continue
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			report.Skipped = append(report.Skipped, missing[i:]...)
			return report, err
		}

		record, err := s.client.Lookup(ctx, cnpj)
		if err != nil {
			report.Failures = append(report.Failures, LookupFailure{CNPJ: cnpj, Error: err.Error()})

			var rateLimited *RateLimitedError
			if errors.As(err, &rateLimited) {
				consecutive429++
				if rateLimited.RetryAfter > 0 {
					if werr := sleepCtx(ctx, rateLimited.RetryAfter); werr != nil {
						report.Skipped = append(report.Skipped, missing[i+1:]...)
						return report, werr
					}
				}
			} else {
				consecutive429 = 0
			}
			continue
		}

		consecutive429 = 0
		if s.cache != nil {
			s.cache.Set(ctx, cnpj, record)
		}
		s.persistRecord(record, report)
	}

	return report, nil
}

// RefreshStaleSuppliers re-fetches registry data for suppliers whose
// last fetch is older than the staleness window. Used by the scheduled
// refresh job; pacing and breaker behavior match EnrichSuppliers.
func (s *EnrichmentService) RefreshStaleSuppliers(ctx context.Context, olderThan time.Time) (*EnrichmentReport, error) {
	var stale []models.Supplier
	if err := s.db.Where("registry_fetched_at IS NULL OR registry_fetched_at < ?", olderThan).Find(&stale).Error; err != nil {
		return nil, err
	}

	report := &EnrichmentReport{}
	consecutive429 := 0
	for i, supplier := range stale {
		if consecutive429 >= s.maxConsecutive429 {
			for _, rest := range stale[i:] {
				report.Skipped = append(report.Skipped, rest.CNPJ)
			}
			break
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return report, err
		}

		record, err := s.client.Lookup(ctx, supplier.CNPJ)
		if err != nil {
			report.Failures = append(report.Failures, LookupFailure{CNPJ: supplier.CNPJ, Error: err.Error()})
			var rateLimited *RateLimitedError
			if errors.As(err, &rateLimited) {
				consecutive429++
			} else {
				consecutive429 = 0
			}
			continue
		}

		consecutive429 = 0
		if s.cache != nil {
			s.cache.Set(ctx, supplier.CNPJ, record)
		}

		fresh := record.Supplier()
		if err := s.db.Model(&supplier).Updates(map[string]interface{}{
			"legal_name":          fresh.LegalName,
			"trade_name":          fresh.TradeName,
			"main_activity_code":  fresh.MainActivityCode,
			"main_activity_desc":  fresh.MainActivityDesc,
			"legal_nature":        fresh.LegalNature,
			"company_size":        fresh.CompanySize,
			"street":              fresh.Street,
			"number":              fresh.Number,
			"complement":          fresh.Complement,
			"district":            fresh.District,
			"city":                fresh.City,
			"state":               fresh.State,
			"postal_code":         fresh.PostalCode,
			"registry_fetched_at": fresh.RegistryFetchedAt,
		}).Error; err != nil {
			report.Failures = append(report.Failures, LookupFailure{CNPJ: supplier.CNPJ, Error: err.Error()})
			continue
		}
		report.Created = append(report.Created, supplier.CNPJ)
	}

	return report, nil
}

// missingCNPJs dedupes the batch identifiers and diffs them against the
// suppliers already stored. Invalid identifiers come back as failures.
func (s *EnrichmentService) missingCNPJs(payments []models.Payment, report *EnrichmentReport) ([]string, []LookupFailure) {
	seen := make(map[string]bool)
	var failures []LookupFailure
	var distinct []string
	for _, payment := range payments {
		digits := models.SanitizeCNPJ(payment.SupplierCNPJ)
		if seen[digits] {
			continue
		}
		seen[digits] = true
		if len(digits) != 14 {
			failures = append(failures, LookupFailure{CNPJ: payment.SupplierCNPJ, Error: "invalid cnpj: expected 14 digits"})
			continue
		}
		distinct = append(distinct, digits)
	}

	if len(distinct) == 0 {
		return nil, failures
	}

	var known []string
	if err := s.db.Model(&models.Supplier{}).Where("cnpj IN ?", distinct).Pluck("cnpj", &known).Error; err != nil {
		log.Printf("enrichment: failed to query known suppliers: %v", err)
	}
	knownSet := make(map[string]bool, len(known))
	for _, cnpj := range known {
		knownSet[cnpj] = true
	}
	report.Known = len(known)

	var missing []string
	for _, cnpj := range distinct {
		if !knownSet[cnpj] {
			missing = append(missing, cnpj)
		}
	}
	sort.Strings(missing)
	return missing, failures
}

// persistRecord stores one fetched supplier. Insert failures are
// recorded but do not stop the run.
func (s *EnrichmentService) persistRecord(record *Record, report *EnrichmentReport) {
	supplier := record.Supplier()
	if err := s.db.Create(&supplier).Error; err != nil {
		report.Failures = append(report.Failures, LookupFailure{CNPJ: record.CNPJ, Error: err.Error()})
		return
	}
	report.Created = append(report.Created, record.CNPJ)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
