package audit

import (
	"testing"

	"github.com/recupera/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testRate(percentage, minimum float64) models.TaxRate {
	return models.TaxRate{
		TaxType:      models.TaxTypeIRRF,
		Percentage:   decimal.NewFromFloat(percentage),
		MinimumValue: decimal.NewFromFloat(minimum),
	}
}

func TestCalculateAppliesWithholding(t *testing.T) {
	calc := Calculate(decimal.NewFromFloat(10000.00), testRate(1.5, 666.00))

	assert.Equal(t, models.AuditStatusProcessed, calc.Status)
	assert.Equal(t, "150.00", calc.TaxValue.StringFixed(2))
	assert.Equal(t, "9850.00", calc.NetValue.StringFixed(2))
}

func TestCalculateExemptBelowMinimum(t *testing.T) {
	calc := Calculate(decimal.NewFromFloat(500.00), testRate(1.5, 666.00))

	assert.Equal(t, models.AuditStatusExempt, calc.Status)
	assert.Equal(t, "0.00", calc.TaxValue.StringFixed(2))
	assert.Equal(t, "500.00", calc.NetValue.StringFixed(2))
}

func TestCalculateAmountEqualToMinimumIsProcessed(t *testing.T) {
	calc := Calculate(decimal.NewFromFloat(666.00), testRate(1.5, 666.00))

	assert.Equal(t, models.AuditStatusProcessed, calc.Status)
	assert.Equal(t, "9.99", calc.TaxValue.StringFixed(2))
	assert.Equal(t, "656.01", calc.NetValue.StringFixed(2))
}

func TestCalculateRoundsToCents(t *testing.T) {
	// 1234.56 * 4.65% = 57.40704 -> 57.41
	calc := Calculate(decimal.NewFromFloat(1234.56), testRate(4.65, 0))

	assert.Equal(t, "57.41", calc.TaxValue.StringFixed(2))
	assert.Equal(t, "1177.15", calc.NetValue.StringFixed(2))
	assert.True(t, calc.TaxValue.Add(calc.NetValue).Equal(decimal.NewFromFloat(1234.56)))
}

func TestCalculateNeverNegative(t *testing.T) {
	calc := Calculate(decimal.NewFromFloat(0.01), testRate(1.5, 0))

	assert.False(t, calc.TaxValue.IsNegative())
	assert.False(t, calc.NetValue.IsNegative())
}
