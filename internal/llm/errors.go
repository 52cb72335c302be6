package llm

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Veraticus/atlas/internal/common"
)

// APIError is a non-success reply from a provider.
type APIError struct {
	Provider   string
	Body       string
	StatusCode int
	// RetryAfter is the server's requested wait, zero when it sent none.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 500 {
		body = body[:500] + "..."
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, body)
}

// Retryable reports whether the request may succeed if sent again.
// Rate limits and server errors are retryable; authentication and other
// client errors are not.
func (e *APIError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// Unwrap exposes the rate-limit sentinel so the retry loop can back off.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return common.ErrRateLimit
	}
	return nil
}

// IsAuthError reports whether err is a rejected credential.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// classify decides whether an error from a provider call should be retried.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &common.RetryableError{Err: err, Retryable: apiErr.Retryable(), After: apiErr.RetryAfter}
	}
	if errors.Is(err, common.ErrMalformedResponse) {
		return &common.RetryableError{Err: err, Retryable: false}
	}
	if errors.Is(err, common.ErrInvalidConfig) || errors.Is(err, common.ErrMissingCredential) {
		return &common.RetryableError{Err: err, Retryable: false}
	}

	// Anything else is a transport failure.
	return &common.RetryableError{Err: err, Retryable: true}
}
