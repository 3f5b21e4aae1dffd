package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	app "github.com/erp/commerce-sync/internal/application/integration"
	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/cache"
	"github.com/erp/commerce-sync/internal/infrastructure/config"
	"github.com/erp/commerce-sync/internal/infrastructure/logger"
	"github.com/erp/commerce-sync/internal/infrastructure/messaging"
	"github.com/erp/commerce-sync/internal/infrastructure/persistence"
	"github.com/erp/commerce-sync/internal/infrastructure/remote"
	"github.com/erp/commerce-sync/internal/infrastructure/scheduler"
	"github.com/erp/commerce-sync/internal/infrastructure/telemetry"
	"github.com/erp/commerce-sync/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting commerce sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Tracing and OTLP metrics
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	prom := telemetry.NewPrometheusMetrics("commerce_sync")
	recorders := []integration.OutcomeRecorder{prom}

	var meter metric.Meter
	if mp.IsEnabled() {
		meter = mp.Meter("commerce-sync")
		syncMetrics, err := telemetry.NewSyncMetrics(meter)
		if err != nil {
			log.Fatal("Failed to create sync metrics", zap.Error(err))
		}
		recorders = append(recorders, syncMetrics)
	}

	// Optional outcome log
	var db *persistence.Database
	var syncLog *persistence.SyncLogRepository
	var purger *scheduler.RetentionPurger
	if cfg.Database.Enabled {
		gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
		db, err = persistence.NewDatabase(&cfg.Database, gormLog)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
			Enabled:  cfg.Telemetry.DBTraceEnabled,
			DBSystem: "postgresql",
		}, log); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to migrate sync log", zap.Error(err))
		}
		syncLog = persistence.NewSyncLogRepository(db.DB)
		if cfg.Sync.OutcomeLogEnabled {
			recorders = append(recorders, syncLog)
		}
		if cfg.Sync.OutcomeLogRetention > 0 {
			purger, err = scheduler.NewRetentionPurger(scheduler.RetentionConfig{
				Retention: cfg.Sync.OutcomeLogRetention,
				Interval:  cfg.Sync.PurgeInterval,
			}, syncLog, log)
			if err != nil {
				log.Fatal("Failed to create retention purger", zap.Error(err))
			}
			if err := purger.Start(ctx); err != nil {
				log.Fatal("Failed to start retention purger", zap.Error(err))
			}
		}
		log.Info("Database connected successfully")
	}

	// Dispatcher
	opts := []app.DispatcherOption{app.WithOutcomeRecorders(recorders...)}
	var idempotency integration.IdempotencyStore
	if cfg.Sync.IdempotencyEnabled {
		idempotency = cache.NewIdempotencyStore(ctx, cfg.Redis, log)
		opts = append(opts, app.WithIdempotency(idempotency, cfg.Sync.IdempotencyTTL))
	}
	factory := remote.NewFactory(remote.WithTimeout(remoteTimeout(cfg)))
	dispatcher := app.NewDispatcher(factory, environmentFromConfig(cfg), log, opts...)

	// Optional NATS subscription
	var nc *nats.Conn
	var consumer *messaging.Consumer
	if cfg.NATS.Enabled {
		nc, err = nats.Connect(cfg.NATS.URL,
			nats.Name(cfg.App.Name),
			nats.Timeout(10*time.Second),
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(3*time.Second),
		)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.String("url", cfg.NATS.URL), zap.Error(err))
		}
		js, err := nc.JetStream()
		if err != nil {
			log.Fatal("Failed to create JetStream context", zap.Error(err))
		}
		consumer = messaging.NewConsumer(js, cfg.NATS, dispatcher, log)
		if err := consumer.Start(ctx); err != nil {
			log.Fatal("Failed to start NATS consumer", zap.Error(err))
		}
	}

	// HTTP shell
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	deps := router.Dependencies{
		Invoker:      dispatcher,
		Metrics:      prom.Handler(),
		HealthChecks: healthChecks(db, nc),
	}
	if syncLog != nil {
		deps.SyncLog = syncLog
	}
	engine := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		TracingEnabled: tp.IsEnabled(),
		Meter:          meter,
	}, deps, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			log.Error("Error draining NATS subscription", zap.Error(err))
		}
		log.Info("NATS consumer stopped", zap.Any("stats", consumer.Stats()))
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			log.Error("Error draining NATS connection", zap.Error(err))
		}
	}
	if purger != nil {
		if err := purger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping retention purger", zap.Error(err))
		}
	}
	if idempotency != nil {
		if err := idempotency.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
