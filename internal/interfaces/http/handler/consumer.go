package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/erp/commerce-sync/internal/application/integration"
	"github.com/erp/commerce-sync/internal/interfaces/http/dto"
)

// Invoker runs one entity pipeline.
type Invoker interface {
	Invoke(ctx context.Context, entity string, params app.Params) app.Result
}

// ConsumerHandler exposes the entity pipelines over HTTP.
type ConsumerHandler struct {
	BaseHandler
	invoker Invoker
}

// NewConsumerHandler creates a ConsumerHandler
func NewConsumerHandler(invoker Invoker) *ConsumerHandler {
	return &ConsumerHandler{invoker: invoker}
}

// Consume runs the pipeline named by the :entity path parameter on the event
// in the request body. Query parameters named after an overridable environment
// value replace it for this invocation only, e.g. ?DOTDIGITAL_LIST_SUBSCRIBER=42.
func (h *ConsumerHandler) Consume(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		h.BadRequest(c, "failed to read request body")
		return
	}

	result := h.invoker.Invoke(c.Request.Context(), c.Param("entity"), app.Params{
		Event: body,
		Env:   envOverrides(c),
	})

	if result.Err != nil {
		_ = c.Error(result.Err)
		h.Error(c, result.StatusCode, dto.ErrorCode(result.Err), result.Err.Error())
		return
	}
	c.JSON(result.StatusCode, dto.NewSuccessResponse(result.Body))
}

func envOverrides(c *gin.Context) map[string]string {
	query := c.Request.URL.Query()
	if len(query) == 0 {
		return nil
	}
	env := make(map[string]string, len(query))
	for name, values := range query {
		if app.Overridable(name) && len(values) > 0 {
			env[name] = values[0]
		}
	}
	if len(env) == 0 {
		return nil
	}
	return env
}
