package registry

import (
	"errors"
	"fmt"
	"time"
)

// ErrCNPJNotFound is returned when the registry has no record for the
// identifier
var ErrCNPJNotFound = errors.New("cnpj not found in registry")

// RateLimitedError is returned when the registry throttles the request.
// RetryAfter is zero when the upstream did not send a Retry-After header.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("registry rate limited, retry after %s", e.RetryAfter)
	}
	return "registry rate limited"
}

// UpstreamError wraps any other non-2xx response or transport failure
// from the registry service
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("registry request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("registry request failed: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
