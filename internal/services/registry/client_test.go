package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/recupera/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.RegistryConfig{
		Token:          "test-token",
		BaseURL:        server.URL,
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(config.RegistryConfig{BaseURL: "http://localhost"})
	assert.Error(t, err)
}

func TestLookupSuccess(t *testing.T) {
	var gotPath, gotAuth string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"cnpj": "12345678000195",
			"razao_social": "ACME CONSULTORIA LTDA",
			"nome_fantasia": "Acme",
			"cnae_fiscal": "6201-5/01",
			"cnae_fiscal_descricao": "Desenvolvimento de programas de computador sob encomenda",
			"cnaes_secundarios": [{"codigo": "6202-3/00", "descricao": "Desenvolvimento e licenciamento de programas customizaveis"}],
			"natureza_juridica": "Sociedade Empresaria Limitada",
			"porte": "ME",
			"logradouro": "Rua das Flores",
			"numero": "100",
			"bairro": "Centro",
			"municipio": "Sao Paulo",
			"uf": "SP",
			"cep": "01000-000"
		}`))
	})

	record, err := client.Lookup(context.Background(), "12.345.678/0001-95")
	require.NoError(t, err)

	assert.Equal(t, "/cnpj/12345678000195", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "12345678000195", record.CNPJ)
	assert.Equal(t, "ACME CONSULTORIA LTDA", record.LegalName)
	assert.Equal(t, "6201-5/01", record.MainActivity.Code)
	assert.Len(t, record.SecondaryActivities, 1)
	assert.Equal(t, "SP", record.State)
}

func TestLookupRejectsInvalidCNPJ(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be issued for an invalid identifier")
	})

	_, err := client.Lookup(context.Background(), "123")
	assert.Error(t, err)
}

func TestLookupNotFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Lookup(context.Background(), "12345678000195")
	assert.ErrorIs(t, err, ErrCNPJNotFound)
}

func TestLookupRateLimited(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Lookup(context.Background(), "12345678000195")

	var rateLimited *RateLimitedError
	require.True(t, errors.As(err, &rateLimited))
	assert.Equal(t, 7*time.Second, rateLimited.RetryAfter)
}

func TestLookupUpstreamError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	})

	_, err := client.Lookup(context.Background(), "12345678000195")

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode)
	assert.Contains(t, upstream.Message, "upstream exploded")
}

func TestLookupTransportFailure(t *testing.T) {
	client, err := NewClient(config.RegistryConfig{
		Token:          "test-token",
		BaseURL:        "http://127.0.0.1:1",
		TimeoutSeconds: 1,
	})
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "12345678000195")

	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("Wed, 21 Oct 2026 07:28:00 GMT"))
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
}
