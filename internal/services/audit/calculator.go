package audit

import (
	"github.com/recupera/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Calculation is the outcome of applying a withholding rate to a
// payment amount
type Calculation struct {
	Status   models.AuditStatus
	TaxValue decimal.Decimal
	NetValue decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Calculate applies a withholding rate to a payment amount. Amounts
// below the rate's minimum value are exempt: nothing is retained and
// the net value equals the original amount. Otherwise the retained tax
// is amount * percentage / 100 rounded to cents.
func Calculate(amount decimal.Decimal, rate models.TaxRate) Calculation {
	if amount.LessThan(rate.MinimumValue) {
		return Calculation{
			Status:   models.AuditStatusExempt,
			TaxValue: decimal.Zero,
			NetValue: amount,
		}
	}

	taxValue := amount.Mul(rate.Percentage).Div(oneHundred).Round(2)
	return Calculation{
		Status:   models.AuditStatusProcessed,
		TaxValue: taxValue,
		NetValue: amount.Sub(taxValue),
	}
}
