package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/infrastructure/logger"
	"github.com/erp/commerce-sync/internal/interfaces/http/dto"
	"github.com/erp/commerce-sync/internal/interfaces/http/handler"
	"github.com/erp/commerce-sync/internal/interfaces/http/middleware"
)

// EngineConfig holds the HTTP shell settings.
type EngineConfig struct {
	ServiceName    string
	MaxBodySize    int64
	TrustedProxies []string
	TracingEnabled bool
	// Meter records HTTP server metrics; nil disables them.
	Meter metric.Meter
}

// Dependencies are the components served over HTTP. Only Invoker is required.
type Dependencies struct {
	Invoker      handler.Invoker
	SyncLog      handler.SyncLogStore
	Metrics      http.Handler
	HealthChecks map[string]handler.HealthCheck
}

// NewEngine builds the gin engine with the middleware stack and all routes:
//
//	GET    /health
//	GET    /metrics                      (when Metrics is set)
//	POST   /api/v1/consumers/:entity
//	GET    /api/v1/sync-logs             (when SyncLog is set)
//	DELETE /api/v1/sync-logs             (when SyncLog is set)
func NewEngine(cfg EngineConfig, deps Dependencies, log *zap.Logger) *gin.Engine {
	engine := gin.New()

	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
	}))
	engine.Use(middleware.SpanAttributes(), middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(cfg.Meter))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "route not found"))
	})

	engine.GET("/health", handler.NewSystemHandler(deps.HealthChecks).Health)
	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))

	consumers := NewDomainGroup("consumers", "/consumers")
	consumers.POST("/:entity", handler.NewConsumerHandler(deps.Invoker).Consume)
	r.Register(consumers)

	if deps.SyncLog != nil {
		syncLogHandler := handler.NewSyncLogHandler(deps.SyncLog)
		syncLogs := NewDomainGroup("sync-logs", "/sync-logs")
		syncLogs.GET("", syncLogHandler.List)
		syncLogs.DELETE("", syncLogHandler.Purge)
		r.Register(syncLogs)
	}

	r.Setup()
	return engine
}
