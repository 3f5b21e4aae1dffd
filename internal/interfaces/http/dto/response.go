package dto

import "time"

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Meta represents listing metadata
type Meta struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewSuccessResponseWithMeta creates a success response for a listing
func NewSuccessResponseWithMeta(data any, count, limit int) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Count: count, Limit: limit},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response that carries the request id
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.RequestID = requestID
	return resp
}

// SyncLogResponse is one recorded invocation outcome
type SyncLogResponse struct {
	EventID    string    `json:"event_id"`
	Entity     string    `json:"entity"`
	Key        string    `json:"key"`
	StatusCode int       `json:"status_code"`
	Succeeded  bool      `json:"succeeded"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// SyncLogQuery holds the listing filters of the sync log endpoint
type SyncLogQuery struct {
	Entity     string    `form:"entity" binding:"omitempty,oneof=customer order product subscriber"`
	EventID    string    `form:"event_id"`
	FailedOnly bool      `form:"failed_only"`
	Since      time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	OrderBy    string    `form:"order_by"`
	OrderDir   string    `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Limit      int       `form:"limit" binding:"omitempty,min=1,max=100"`
}

// PurgeQuery selects outcomes older than Before
type PurgeQuery struct {
	Before time.Time `form:"before" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// PurgeResponse reports how many outcomes were deleted
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// HealthResponse reports process and dependency health
type HealthResponse struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime"`
	GoVersion string            `json:"go_version"`
	Checks    map[string]string `json:"checks,omitempty"`
}
