package integration

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrUnknownEntity        = errors.New("integration: unknown entity")
	ErrInvalidTimestamp     = errors.New("integration: invalid timestamp")
	ErrInvalidMappingTable  = errors.New("integration: invalid data field mapping")
	ErrStoreConfigNotFound  = errors.New("integration: store config not found")
	ErrInvalidEventPayload  = errors.New("integration: invalid event payload")
	ErrRemoteRequestFailed  = errors.New("integration: remote request failed")
	ErrRemoteInvalidPayload = errors.New("integration: invalid remote response")
)

// ---------------------------------------------------------------------------
// ValidationError
// ---------------------------------------------------------------------------

// ValidationError reports missing or malformed input. It always maps to HTTP 400.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a free-form message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NewMissingParametersError reports the names of absent inputs,
// e.g. "missing parameter(s) 'id, email'".
func NewMissingParametersError(names []string) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("missing parameter(s) '%s'", strings.Join(names, ", ")),
		Fields:  names,
	}
}

// ---------------------------------------------------------------------------
// HTTPError
// ---------------------------------------------------------------------------

// HTTPError is returned by remote API clients for any non-2xx response.
type HTTPError struct {
	StatusCode  int
	Code        string
	Description string
	Method      string
	URL         string
}

func (e *HTTPError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, ": %s", e.Description)
	}
	return b.String()
}

// Unwrap lets callers match remote failures with errors.Is(err, ErrRemoteRequestFailed).
func (e *HTTPError) Unwrap() error {
	return ErrRemoteRequestFailed
}

// IsNotFound reports whether err carries an HTTP 404 from a remote API.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// StatusCode maps an error to the status code of an invocation result.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnknownEntity) {
		return http.StatusNotFound
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode > 0 {
		return httpErr.StatusCode
	}
	return http.StatusInternalServerError
}
