package integration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/logger"
	"github.com/erp/commerce-sync/internal/infrastructure/telemetry"
)

// DefaultIdempotencyTTL is how long a synced event id is remembered.
const DefaultIdempotencyTTL = 24 * time.Hour

// Params are the inputs of one invocation: the raw event and parameter
// overrides keyed by environment variable name.
type Params struct {
	Event []byte
	Env   map[string]string
}

// Dispatcher routes events to the entity pipelines. Every invocation gets
// fresh remote clients so no state is shared between events.
type Dispatcher struct {
	factory        ClientFactory
	env            Environment
	logger         *zap.Logger
	idempotency    integration.IdempotencyStore
	idempotencyTTL time.Duration
	recorders      []integration.OutcomeRecorder
	mapperOpts     []MapperOption
	now            func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithIdempotency skips events whose id was already synced for the entity.
func WithIdempotency(store integration.IdempotencyStore, ttl time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.idempotency = store
		if ttl <= 0 {
			ttl = DefaultIdempotencyTTL
		}
		d.idempotencyTTL = ttl
	}
}

// WithOutcomeRecorders reports every invocation outcome to recorders.
func WithOutcomeRecorders(recorders ...integration.OutcomeRecorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.recorders = append(d.recorders, recorders...)
	}
}

// WithMapperOptions configures the customer data field mapper.
func WithMapperOptions(opts ...MapperOption) DispatcherOption {
	return func(d *Dispatcher) {
		d.mapperOpts = append(d.mapperOpts, opts...)
	}
}

// WithClock replaces the clock used to time invocations.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a Dispatcher with env as the base parameter set.
func NewDispatcher(factory ClientFactory, env Environment, log *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		factory: factory,
		env:     env,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Invoke runs the pipeline of entity for one event. It never returns an
// error: failures are folded into the result status and body.
func (d *Dispatcher) Invoke(ctx context.Context, entityName string, params Params) (result Result) {
	started := d.now()
	outcome := integration.Outcome{StartedAt: started}

	ctx, span := telemetry.StartSpan(ctx, "sync.invoke", telemetry.WithAttribute(telemetry.SpanAttrEntity, entityName))
	defer span.End()

	env := d.env.Override(params.Env)
	log := logger.WithLevel(d.logger, env.LogLevel)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic recovered during sync", zap.Any("panic", r), zap.Stack("stack"))
			result = failure(fmt.Errorf("internal error: %v", r))
		}
		outcome.StatusCode = result.StatusCode
		outcome.Duration = d.now().Sub(started)
		if result.Err != nil {
			outcome.Message = result.Err.Error()
			telemetry.RecordError(span, result.Err)
		} else {
			telemetry.SetOK(span)
		}
		telemetry.SetAttributes(span, telemetry.SpanAttrStatusCode, result.StatusCode)
		d.record(ctx, log, outcome)
	}()

	entity, err := integration.ParseEntity(entityName)
	if err != nil {
		return failure(err)
	}
	outcome.Entity = entity

	event, err := DecodeEvent(params.Event)
	if err != nil {
		return failure(err)
	}
	outcome.EventID = event.ID
	ctx, log = logger.WithEvent(ctx, log, event.ID, entity.String())
	telemetry.SetAttributes(span, telemetry.SpanAttrEventID, event.ID)

	p := pipelines[entity]
	if key := event.Data.Value.String(p.keyField); key != "" {
		outcome.Key = key
		telemetry.SetAttributes(span, telemetry.SpanAttrRecordKey, key)
	}

	if err := Preflight(entity, env, event.Data.Value); err != nil {
		log.Warn("Rejected event", zap.Error(err))
		return failure(err)
	}

	idempotencyKey := entity.String() + ":" + event.ID
	if d.alreadyProcessed(ctx, log, event.ID, idempotencyKey) {
		log.Info("Skipping already processed event")
		return success(InsightResponse{Message: MessageAlreadyProcessed, Key: outcome.Key})
	}

	clients, err := d.factory.NewClients(env, log)
	if err != nil {
		return failure(err)
	}
	consumer, err := p.newConsumer(clients, env, log, d.mapperOpts)
	if err != nil {
		return failure(err)
	}

	body, err := consumer.Consume(ctx, event)
	if err != nil {
		log.Error("Sync failed", zap.Error(err), zap.Int("status_code", integration.StatusCode(err)))
		return failure(err)
	}

	d.markProcessed(ctx, log, event.ID, idempotencyKey)
	return success(body)
}

func (d *Dispatcher) alreadyProcessed(ctx context.Context, log *zap.Logger, eventID, key string) bool {
	if d.idempotency == nil || eventID == "" {
		return false
	}
	processed, err := d.idempotency.IsProcessed(ctx, key)
	if err != nil {
		log.Warn("Idempotency lookup failed", zap.Error(err))
		return false
	}
	return processed
}

func (d *Dispatcher) markProcessed(ctx context.Context, log *zap.Logger, eventID, key string) {
	if d.idempotency == nil || eventID == "" {
		return
	}
	if _, err := d.idempotency.MarkProcessed(ctx, key, d.idempotencyTTL); err != nil {
		log.Warn("Failed to mark event processed", zap.Error(err))
	}
}

func (d *Dispatcher) record(ctx context.Context, log *zap.Logger, outcome integration.Outcome) {
	for _, recorder := range d.recorders {
		if err := recorder.RecordOutcome(ctx, outcome); err != nil {
			log.Warn("Failed to record outcome", zap.Error(err))
		}
	}
}
