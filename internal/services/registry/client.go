package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/recupera/backend/internal/config"
	"github.com/recupera/backend/internal/models"
)

// Activity is a CNAE code/description pair
type Activity struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
}

// Record holds the registry data returned for a CNPJ
type Record struct {
	CNPJ                string
	LegalName           string
	TradeName           string
	MainActivity        Activity
	SecondaryActivities []Activity
	LegalNature         string
	CompanySize         string
	Street              string
	Number              string
	Complement          string
	District            string
	City                string
	State               string
	PostalCode          string
}

// lookupResponse mirrors the upstream registry response body
type lookupResponse struct {
	CNPJ             string     `json:"cnpj"`
	LegalName        string     `json:"razao_social"`
	TradeName        string     `json:"nome_fantasia"`
	MainActivityCode string     `json:"cnae_fiscal"`
	MainActivityDesc string     `json:"cnae_fiscal_descricao"`
	SecondaryCNAEs   []Activity `json:"cnaes_secundarios"`
	LegalNature      string     `json:"natureza_juridica"`
	CompanySize      string     `json:"porte"`
	Street           string     `json:"logradouro"`
	Number           string     `json:"numero"`
	Complement       string     `json:"complemento"`
	District         string     `json:"bairro"`
	City             string     `json:"municipio"`
	State            string     `json:"uf"`
	PostalCode       string     `json:"cep"`
}

// Lookuper resolves a CNPJ to its registry record. Satisfied by Client.
type Lookuper interface {
	Lookup(ctx context.Context, cnpj string) (*Record, error)
}

// Client calls the external CNPJ registry service. It performs no
// retries: backoff and pacing policy belong to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a registry client from configuration. It fails when
// the API token is absent so a missing credential is caught at startup
// rather than on the first lookup.
func NewClient(cfg config.RegistryConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("REGISTRY_API_TOKEN environment variable is not set")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
	}, nil
}

// Lookup fetches the registry record for a CNPJ. The identifier is
// stripped to digits and must be exactly 14 long.
func (c *Client) Lookup(ctx context.Context, cnpj string) (*Record, error) {
	digits := models.SanitizeCNPJ(cnpj)
	if len(digits) != 14 {
		return nil, fmt.Errorf("invalid cnpj %q: expected 14 digits", cnpj)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cnpj/"+digits, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrCNPJNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var payload lookupResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "failed to unmarshal response", Err: err}
	}

	return &Record{
		CNPJ:      digits,
		LegalName: payload.LegalName,
		TradeName: payload.TradeName,
		MainActivity: Activity{
			Code:        payload.MainActivityCode,
			Description: payload.MainActivityDesc,
		},
		SecondaryActivities: payload.SecondaryCNAEs,
		LegalNature:         payload.LegalNature,
		CompanySize:         payload.CompanySize,
		Street:              payload.Street,
		Number:              payload.Number,
		Complement:          payload.Complement,
		District:            payload.District,
		City:                payload.City,
		State:               payload.State,
		PostalCode:          payload.PostalCode,
	}, nil
}

// parseRetryAfter understands the delay-seconds form of the header.
// HTTP-date values are ignored.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Supplier converts a registry record into a supplier row
func (r *Record) Supplier() models.Supplier {
	now := time.Now()
	return models.Supplier{
		CNPJ:              r.CNPJ,
		LegalName:         r.LegalName,
		TradeName:         r.TradeName,
		MainActivityCode:  r.MainActivity.Code,
		MainActivityDesc:  r.MainActivity.Description,
		LegalNature:       r.LegalNature,
		CompanySize:       r.CompanySize,
		Street:            r.Street,
		Number:            r.Number,
		Complement:        r.Complement,
		District:          r.District,
		City:              r.City,
		State:             r.State,
		PostalCode:        r.PostalCode,
		RegistryFetchedAt: &now,
	}
}
