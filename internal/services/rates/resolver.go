package rates

import (
	"errors"
	"fmt"
	"time"

	"github.com/recupera/backend/internal/models"
	"gorm.io/gorm"
)

// ErrRateNotFound is returned when no withholding rate covers an
// activity code on a given date
var ErrRateNotFound = errors.New("no withholding rate for activity code")

// Resolver maps a supplier's primary activity code to the withholding
// rate effective on a given date. Secondary activity codes are never
// consulted.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a rate resolver
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the rate for the supplier's main activity code
// effective on the date. Exactly one row is expected; a miss returns
// ErrRateNotFound.
func (r *Resolver) Resolve(supplier models.Supplier, date time.Time) (*models.TaxRate, error) {
	if supplier.MainActivityCode == "" {
		return nil, ErrRateNotFound
	}

	var taxRate models.TaxRate
	err := r.db.
		Where("activity_code = ?", supplier.MainActivityCode).
		Where("effective_from <= ?", date).
		Where("effective_to IS NULL OR effective_to >= ?", date).
		First(&taxRate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, fmt.Errorf("failed to resolve rate: %w", err)
	}
	return &taxRate, nil
}

// Overlaps reports whether a rate's effective window collides with an
// existing row for the same activity code. Used by the CRUD surface to
// keep at most one row resolvable per code at any instant.
func (r *Resolver) Overlaps(rate models.TaxRate) (bool, error) {
	query := r.db.Model(&models.TaxRate{}).
		Where("activity_code = ?", rate.ActivityCode).
		Where("id <> ?", rate.ID).
		Where("effective_to IS NULL OR effective_to >= ?", rate.EffectiveFrom)
	if rate.EffectiveTo != nil {
		query = query.Where("effective_from <= ?", *rate.EffectiveTo)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
