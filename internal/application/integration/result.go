package integration

import (
	"encoding/json"
	"net/http"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

// Result is the outcome of one invocation as returned to the caller.
type Result struct {
	StatusCode int   `json:"statusCode"`
	Body       any   `json:"body"`
	Err        error `json:"-"`
}

// ErrorBody is the body of a failed invocation.
type ErrorBody struct {
	Error string `json:"error"`
}

// ContactResponse is the body of a successful contact sync.
type ContactResponse struct {
	Message string          `json:"message"`
	Contact json.RawMessage `json:"contact"`
}

// InsightResponse is the body of a successful insight record sync.
type InsightResponse struct {
	Message  string          `json:"message"`
	Key      string          `json:"key"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Messages of successful invocations.
const (
	MessageContactSynced    = "Contact created successfully"
	MessageOrderSynced      = "Order synced successfully"
	MessageProductSynced    = "Product synced successfully"
	MessageAlreadyProcessed = "Event already processed"
)

func success(body any) Result {
	return Result{StatusCode: http.StatusOK, Body: body}
}

func failure(err error) Result {
	return Result{
		StatusCode: integration.StatusCode(err),
		Body:       ErrorBody{Error: err.Error()},
		Err:        err,
	}
}

// Succeeded reports whether the invocation completed with a 2xx status.
func (r Result) Succeeded() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
