package inference

import (
	"errors"
	"fmt"
)

// Common inference errors.
var (
	// ErrNoModel indicates no model was specified.
	ErrNoModel = errors.New("no model specified")

	// ErrEmptyMessages indicates the request had no messages.
	ErrEmptyMessages = errors.New("messages cannot be empty")

	// ErrEmptyInput indicates the embed request had no input.
	ErrEmptyInput = errors.New("input cannot be empty")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrContextTooLong indicates the context exceeds model limits.
	ErrContextTooLong = errors.New("context too long")

	// ErrStreamClosed indicates the stream has been closed.
	ErrStreamClosed = errors.New("stream closed")

	// ErrNotSupported indicates the provider doesn't support the operation.
	ErrNotSupported = errors.New("operation not supported")

	// ErrProviderUnavailable indicates the provider cannot serve requests.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrTimeout indicates the request timed out.
	ErrTimeout = errors.New("request timeout")
)

// APIError represents an error from the inference API.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Provider   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s API error (status %d, code %s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == 429
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsServerError returns true if this is a server-side error.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsRetryable returns true if the request can be retried.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimit() || e.IsServerError()
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
