package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/logger"
	"github.com/erp/commerce-sync/internal/infrastructure/persistence"
	"github.com/erp/commerce-sync/internal/interfaces/http/dto"
)

// SyncLogStore reads and prunes recorded invocation outcomes.
type SyncLogStore interface {
	List(ctx context.Context, filter persistence.SyncLogFilter) ([]integration.Outcome, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SyncLogHandler serves the sync outcome log.
type SyncLogHandler struct {
	BaseHandler
	store SyncLogStore
}

// NewSyncLogHandler creates a SyncLogHandler
func NewSyncLogHandler(store SyncLogStore) *SyncLogHandler {
	return &SyncLogHandler{store: store}
}

// List returns recorded outcomes, newest first unless ordered otherwise.
func (h *SyncLogHandler) List(c *gin.Context) {
	var query dto.SyncLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := persistence.SyncLogFilter{
		Entity:     integration.Entity(query.Entity),
		EventID:    query.EventID,
		FailedOnly: query.FailedOnly,
		Since:      query.Since,
		OrderBy:    query.OrderBy,
		OrderDir:   query.OrderDir,
		Limit:      query.Limit,
	}
	outcomes, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		logger.GetGinLogger(c).Error("Failed to list sync log", zap.Error(err))
		h.InternalError(c, "failed to list sync log")
		return
	}

	items := make([]dto.SyncLogResponse, len(outcomes))
	for i, o := range outcomes {
		items[i] = dto.SyncLogResponse{
			EventID:    o.EventID,
			Entity:     o.Entity.String(),
			Key:        o.Key,
			StatusCode: o.StatusCode,
			Succeeded:  o.Succeeded(),
			Message:    o.Message,
			StartedAt:  o.StartedAt,
			DurationMs: o.Duration.Milliseconds(),
		}
	}

	limit := query.Limit
	if limit == 0 {
		limit = persistence.DefaultListLimit
	}
	h.SuccessWithMeta(c, items, len(items), limit)
}

// Purge deletes outcomes that started before the ?before= timestamp.
func (h *SyncLogHandler) Purge(c *gin.Context) {
	var query dto.PurgeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	deleted, err := h.store.PurgeBefore(c.Request.Context(), query.Before)
	if err != nil {
		logger.GetGinLogger(c).Error("Failed to purge sync log", zap.Error(err))
		h.InternalError(c, "failed to purge sync log")
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PurgeResponse{Deleted: deleted}))
}
