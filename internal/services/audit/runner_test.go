package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/recupera/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Client{},
		&models.Supplier{},
		&models.Payment{},
		&models.TaxRate{},
		&models.AuditResult{},
	))
	return db
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func seedClient(t *testing.T, db *gorm.DB) models.Client {
	client := models.Client{CNPJ: "99999999000191", LegalName: "Cliente Teste"}
	require.NoError(t, db.Create(&client).Error)
	return client
}

func seedSupplier(t *testing.T, db *gorm.DB, cnpj, activityCode string) models.Supplier {
	supplier := models.Supplier{CNPJ: cnpj, LegalName: "Fornecedor " + cnpj, MainActivityCode: activityCode}
	require.NoError(t, db.Create(&supplier).Error)
	return supplier
}

func seedRate(t *testing.T, db *gorm.DB, activityCode string, percentage, minimum float64) models.TaxRate {
	rate := models.TaxRate{
		ActivityCode:  activityCode,
		TaxType:       models.TaxTypeIRRF,
		Percentage:    decimal.NewFromFloat(percentage),
		MinimumValue:  decimal.NewFromFloat(minimum),
		EffectiveFrom: date(2020, 1, 1),
	}
	require.NoError(t, db.Create(&rate).Error)
	return rate
}

func seedPayment(t *testing.T, db *gorm.DB, client models.Client, cnpj string, amount float64) models.Payment {
	payment := models.Payment{
		ClientID:     client.ID,
		SupplierCNPJ: cnpj,
		Amount:       decimal.NewFromFloat(amount),
		PaymentDate:  date(2026, 3, 15),
	}
	require.NoError(t, db.Create(&payment).Error)
	return payment
}

func TestRunAuditProcessedAndExempt(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db)
	seedSupplier(t, db, "11111111000191", "6201-5/01")
	seedRate(t, db, "6201-5/01", 1.5, 666.00)
	p1 := seedPayment(t, db, client, "11111111000191", 10000.00)
	p2 := seedPayment(t, db, client, "11111111000191", 500.00)

	svc := NewService(db)
	results, err := svc.RunAudit(context.Background(), []models.Payment{p1, p2})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byPayment := map[uuid.UUID]models.AuditResult{}
	for _, result := range results {
		byPayment[result.PaymentID] = result
	}

	processed := byPayment[p1.ID]
	assert.Equal(t, models.AuditStatusProcessed, processed.Status)
	assert.Equal(t, "150.00", processed.TaxValue.StringFixed(2))
	assert.Equal(t, "9850.00", processed.NetValue.StringFixed(2))
	assert.Equal(t, models.TaxTypeIRRF, processed.TaxType)
	assert.NotNil(t, processed.TaxRateID)

	exempt := byPayment[p2.ID]
	assert.Equal(t, models.AuditStatusExempt, exempt.Status)
	assert.Equal(t, "0.00", exempt.TaxValue.StringFixed(2))
	assert.Equal(t, "500.00", exempt.NetValue.StringFixed(2))
	assert.Contains(t, exempt.Observations, "below minimum value")

	var persisted int64
	db.Model(&models.AuditResult{}).Count(&persisted)
	assert.Equal(t, int64(2), persisted)
}

func TestRunAuditRateNotFoundContinues(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db)
	seedSupplier(t, db, "11111111000191", "6201-5/01")
	seedSupplier(t, db, "22222222000191", "4120-4/00") // no rate for this code
	seedRate(t, db, "6201-5/01", 1.5, 666.00)
	p1 := seedPayment(t, db, client, "22222222000191", 2000.00)
	p2 := seedPayment(t, db, client, "11111111000191", 2000.00)

	svc := NewService(db)
	results, err := svc.RunAudit(context.Background(), []models.Payment{p1, p2})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, models.AuditStatusError, results[0].Status)
	assert.Equal(t, "0.00", results[0].TaxValue.StringFixed(2))
	assert.Contains(t, results[0].Observations, "rate not found for activity 4120-4/00")
	assert.Nil(t, results[0].TaxRateID)

	// The batch continues past the error result
	assert.Equal(t, models.AuditStatusProcessed, results[1].Status)
}

func TestRunAuditMissingSupplierAbortsBatch(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db)
	seedSupplier(t, db, "11111111000191", "6201-5/01")
	seedRate(t, db, "6201-5/01", 1.5, 666.00)
	valid := seedPayment(t, db, client, "11111111000191", 10000.00)
	orphan := seedPayment(t, db, client, "33333333000191", 700.00)

	svc := NewService(db)
	_, err := svc.RunAudit(context.Background(), []models.Payment{valid, orphan})

	var notFound *SupplierNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "33333333000191", notFound.CNPJ)

	// Nothing was persisted, not even for the valid payment
	var persisted int64
	db.Model(&models.AuditResult{}).Count(&persisted)
	assert.Equal(t, int64(0), persisted)
}

func TestRunAuditEmptyBatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	results, err := svc.RunAudit(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunAuditRerunCreatesNewResults(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db)
	seedSupplier(t, db, "11111111000191", "6201-5/01")
	seedRate(t, db, "6201-5/01", 1.5, 666.00)
	payment := seedPayment(t, db, client, "11111111000191", 10000.00)

	svc := NewService(db)
	_, err := svc.RunAudit(context.Background(), []models.Payment{payment})
	require.NoError(t, err)
	_, err = svc.RunAudit(context.Background(), []models.Payment{payment})
	require.NoError(t, err)

	var persisted int64
	db.Model(&models.AuditResult{}).Where("payment_id = ?", payment.ID).Count(&persisted)
	assert.Equal(t, int64(2), persisted)
}

func TestResultsDateRangeAndClientFilter(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db)
	other := models.Client{CNPJ: "88888888000191", LegalName: "Outro Cliente"}
	require.NoError(t, db.Create(&other).Error)

	seedSupplier(t, db, "11111111000191", "6201-5/01")
	seedRate(t, db, "6201-5/01", 1.5, 666.00)

	p1 := seedPayment(t, db, client, "11111111000191", 10000.00)
	p2 := seedPayment(t, db, other, "11111111000191", 3000.00)

	svc := NewService(db)
	_, err := svc.RunAudit(context.Background(), []models.Payment{p1, p2})
	require.NoError(t, err)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	all, err := svc.Results(from, to, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.Results(from, to, &client.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p1.ID, mine[0].PaymentID)

	none, err := svc.Results(from.Add(-48*time.Hour), from.Add(-24*time.Hour), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
