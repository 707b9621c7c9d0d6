package provider

import (
	"context"
	"errors"
	"fmt"
)

// Record is a read-only view of one address record as the hosting provider
// reports it. The provider owns the authoritative state; a Record is fetched
// fresh at the start of every reconciliation pass and discarded afterwards.
type Record struct {
	// Provider-assigned identifier
	ID string `json:"id"`
	// Record type, "A" or "AAAA"
	Type string `json:"type"`
	// The subdomain label ("@" for the apex)
	Name string `json:"name"`
	// The address value
	Data string `json:"data"`
	// Advertised time-to-live in seconds
	TTL int64 `json:"ttl"`
}

// Provider defines the interface remote DNS record APIs should implement.
// Implementations perform exactly one remote mutation per successful
// CreateRecord/UpdateRecord call and never retry internally; retry policy
// lives with the caller.
type Provider interface {
	ListRecords(ctx context.Context, domain string) ([]Record, error)
	CreateRecord(ctx context.Context, domain, recordType, name, data string, ttl int64) (Record, error)
	UpdateRecord(ctx context.Context, domain, recordID, data string, ttl int64) (Record, error)
}

// ErrorKind classifies an APIError so callers can pick a recovery strategy.
type ErrorKind string

const (
	// KindAuth: the token is invalid or expired. Waiting will not help.
	KindAuth ErrorKind = "auth"
	// KindRateLimited: too many requests; the inter-pass sleep is backoff
	// enough.
	KindRateLimited ErrorKind = "rate_limited"
	// KindNotFound: the record (or domain) no longer exists. The next pass
	// re-lists and recreates.
	KindNotFound ErrorKind = "not_found"
	// KindServerError: the provider rejected or failed the request.
	KindServerError ErrorKind = "server_error"
	// KindTransport: the request never completed.
	KindTransport ErrorKind = "transport"
)

// APIError is a classified error from a Provider implementation.
type APIError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("provider: %s error", e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an APIError classified as an
// authorization failure. Authorization failures are the only provider errors
// that stop the reconciliation loop.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}
