package provider

import (
	"errors"
	"fmt"
)

// Failure kinds returned by every provider-facing operation.
var (
	// ErrUnauthenticated means there are no usable credentials: the refresh
	// token is missing or was rejected.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrProviderUnavailable means the provider could not be reached.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderRejected means the provider answered with a failure.
	ErrProviderRejected = errors.New("provider rejected request")
)

// HTTPError is a provider-side failure: the response body and its status.
type HTTPError struct {
	Message    string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError builds an HTTPError from a response body and status code.
func NewHTTPError(message string, statusCode int) *HTTPError {
	return &HTTPError{Message: message, StatusCode: statusCode}
}

type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.kind.Error()
	}
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func withKind(kind, cause error) error {
	if cause != nil && errors.Is(cause, kind) {
		return cause
	}
	return &kindError{kind: kind, cause: cause}
}

// Unauthenticated marks cause as ErrUnauthenticated.
func Unauthenticated(cause error) error { return withKind(ErrUnauthenticated, cause) }

// Unavailable marks cause as ErrProviderUnavailable.
func Unavailable(cause error) error { return withKind(ErrProviderUnavailable, cause) }

// Rejected marks cause as ErrProviderRejected.
func Rejected(cause error) error { return withKind(ErrProviderRejected, cause) }
