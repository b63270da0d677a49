package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/recupera/backend/internal/config"
	"github.com/recupera/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubLookuper is a scripted registry client for enrichment tests
type stubLookuper struct {
	calls     []string
	callTimes []time.Time
	responses map[string]*Record
	errors    map[string]error
}

func (s *stubLookuper) Lookup(ctx context.Context, cnpj string) (*Record, error) {
	s.calls = append(s.calls, cnpj)
	s.callTimes = append(s.callTimes, time.Now())
	if err, ok := s.errors[cnpj]; ok {
		return nil, err
	}
	if record, ok := s.responses[cnpj]; ok {
		return record, nil
	}
	return nil, ErrCNPJNotFound
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Supplier{}, &models.Payment{}))
	return db
}

func testRecord(cnpj string) *Record {
	return &Record{
		CNPJ:      cnpj,
		LegalName: "Fornecedor " + cnpj,
		MainActivity: Activity{
			Code:        "6201-5/01",
			Description: "Desenvolvimento de programas de computador sob encomenda",
		},
	}
}

func paymentsFor(cnpjs ...string) []models.Payment {
	payments := make([]models.Payment, len(cnpjs))
	for i, cnpj := range cnpjs {
		payments[i] = models.Payment{
			SupplierCNPJ: cnpj,
			Amount:       decimal.NewFromInt(100),
			PaymentDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return payments
}

func newTestService(db *gorm.DB, client Lookuper, intervalMs int) *EnrichmentService {
	return NewEnrichmentService(db, client, nil, config.RegistryConfig{
		LookupIntervalMs:  intervalMs,
		MaxConsecutive429: 3,
	})
}

func TestEnrichDedupesIdentifiers(t *testing.T) {
	db := setupTestDB(t)
	stub := &stubLookuper{responses: map[string]*Record{
		"11111111000191": testRecord("11111111000191"),
		"22222222000191": testRecord("22222222000191"),
	}}
	svc := newTestService(db, stub, 1)

	// 5 payments, 2 distinct unknown suppliers
	payments := paymentsFor(
		"11111111000191", "11111111000191", "22222222000191",
		"11111111000191", "22222222000191",
	)

	report, err := svc.EnrichSuppliers(context.Background(), payments)
	require.NoError(t, err)

	assert.Len(t, stub.calls, 2)
	assert.ElementsMatch(t, []string{"11111111000191", "22222222000191"}, report.Created)

	var count int64
	db.Model(&models.Supplier{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestEnrichSkipsKnownSuppliers(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.Supplier{CNPJ: "11111111000191", LegalName: "Known"}).Error)

	stub := &stubLookuper{responses: map[string]*Record{
		"22222222000191": testRecord("22222222000191"),
	}}
	svc := newTestService(db, stub, 1)

	report, err := svc.EnrichSuppliers(context.Background(), paymentsFor("11111111000191", "22222222000191"))
	require.NoError(t, err)

	assert.Equal(t, []string{"22222222000191"}, stub.calls)
	assert.Equal(t, 1, report.Known)
	assert.Equal(t, []string{"22222222000191"}, report.Created)
}

func TestEnrichPartialFailure(t *testing.T) {
	db := setupTestDB(t)
	stub := &stubLookuper{
		responses: map[string]*Record{
			"22222222000191": testRecord("22222222000191"),
			"33333333000191": testRecord("33333333000191"),
		},
		errors: map[string]error{
			"11111111000191": &UpstreamError{StatusCode: 500, Message: "boom"},
		},
	}
	svc := newTestService(db, stub, 1)

	report, err := svc.EnrichSuppliers(context.Background(), paymentsFor(
		"11111111000191", "22222222000191", "33333333000191",
	))
	require.NoError(t, err)

	// The failed identifier never blocks the rest of the batch
	assert.Len(t, stub.calls, 3)
	assert.Len(t, report.Failures, 1)
	assert.Equal(t, "11111111000191", report.Failures[0].CNPJ)
	assert.ElementsMatch(t, []string{"22222222000191", "33333333000191"}, report.Created)

	var count int64
	db.Model(&models.Supplier{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestEnrichInvalidIdentifierReported(t *testing.T) {
	db := setupTestDB(t)
	stub := &stubLookuper{responses: map[string]*Record{}}
	svc := newTestService(db, stub, 1)

	report, err := svc.EnrichSuppliers(context.Background(), paymentsFor("123"))
	require.NoError(t, err)

	assert.Empty(t, stub.calls)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Error, "invalid cnpj")
}

func TestEnrichBreakerTripsOnConsecutiveRateLimits(t *testing.T) {
	db := setupTestDB(t)
	stub := &stubLookuper{
		errors: map[string]error{
			"11111111000191": &RateLimitedError{},
			"22222222000191": &RateLimitedError{},
			"33333333000191": &RateLimitedError{},
			"44444444000191": &RateLimitedError{},
			"55555555000191": &RateLimitedError{},
		},
	}
	svc := newTestService(db, stub, 1)

	report, err := svc.EnrichSuppliers(context.Background(), paymentsFor(
		"11111111000191", "22222222000191", "33333333000191",
		"44444444000191", "55555555000191",
	))
	require.NoError(t, err)

	// Breaker opens after 3 consecutive 429s; the rest are skipped
	assert.Len(t, stub.calls, 3)
	assert.Len(t, report.Failures, 3)
	assert.Len(t, report.Skipped, 2)
}

func TestEnrichPacesSequentialLookups(t *testing.T) {
	db := setupTestDB(t)
	stub := &stubLookuper{responses: map[string]*Record{
		"11111111000191": testRecord("11111111000191"),
		"22222222000191": testRecord("22222222000191"),
	}}
	svc := newTestService(db, stub, 50)

	_, err := svc.EnrichSuppliers(context.Background(), paymentsFor("11111111000191", "22222222000191"))
	require.NoError(t, err)

	require.Len(t, stub.callTimes, 2)
	gap := stub.callTimes[1].Sub(stub.callTimes[0])
	assert.GreaterOrEqual(t, gap, 40*time.Millisecond)
}

func TestRefreshStaleSuppliers(t *testing.T) {
	db := setupTestDB(t)
	stale := time.Now().AddDate(0, 0, -120)
	fresh := time.Now()
	require.NoError(t, db.Create(&models.Supplier{CNPJ: "11111111000191", LegalName: "Old Name", RegistryFetchedAt: &stale}).Error)
	require.NoError(t, db.Create(&models.Supplier{CNPJ: "22222222000191", LegalName: "Fresh", RegistryFetchedAt: &fresh}).Error)

	stub := &stubLookuper{responses: map[string]*Record{
		"11111111000191": testRecord("11111111000191"),
	}}
	svc := newTestService(db, stub, 1)

	report, err := svc.RefreshStaleSuppliers(context.Background(), time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)

	assert.Equal(t, []string{"11111111000191"}, stub.calls)
	assert.Equal(t, []string{"11111111000191"}, report.Created)

	var updated models.Supplier
	require.NoError(t, db.First(&updated, "cnpj = ?", "11111111000191").Error)
	assert.Equal(t, "Fornecedor 11111111000191", updated.LegalName)
}
