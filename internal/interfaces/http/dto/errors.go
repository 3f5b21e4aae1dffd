package dto

import (
	"errors"
	"net/http"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeValidation is used when an event or its parameters are rejected
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeNotFound is used when a route or entity does not exist
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeRemote is used when a commerce or marketing API call failed
	ErrCodeRemote = "ERR_REMOTE"
	// ErrCodeUnavailable is used when an optional component is not configured
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRemote:          http.StatusBadGateway,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorCode classifies a sync error. Remote failures keep the code reported
// by the remote API when it sent one.
func ErrorCode(err error) string {
	var validationErr *integration.ValidationError
	var httpErr *integration.HTTPError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return ErrCodeValidation
	case errors.Is(err, integration.ErrUnknownEntity):
		return ErrCodeNotFound
	case errors.As(err, &httpErr):
		if httpErr.Code != "" {
			return httpErr.Code
		}
		return ErrCodeRemote
	default:
		return ErrCodeInternal
	}
}
