package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	app "github.com/erp/commerce-sync/internal/application/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/config"
)

// EnvHeaderPrefix marks message headers carrying parameter overrides, e.g.
// "Sync-Env-DOTDIGITAL_LIST_SUBSCRIBER: 42". Names that are not overridable
// are ignored.
const EnvHeaderPrefix = "Sync-Env-"

// DefaultMaxDeliver bounds redelivery of events that keep failing.
const DefaultMaxDeliver = 5

// Invoker runs one entity pipeline.
type Invoker interface {
	Invoke(ctx context.Context, entity string, params app.Params) app.Result
}

// acknowledger is the subset of *nats.Msg used to settle a delivery.
type acknowledger interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

// Action is how a delivery is settled.
type Action int

const (
	// ActionAck removes the message from the stream.
	ActionAck Action = iota
	// ActionNak asks the server to redeliver.
	ActionNak
	// ActionTerm stops redelivery of a message that can never succeed.
	ActionTerm
)

func (a Action) String() string {
	switch a {
	case ActionAck:
		return "ack"
	case ActionNak:
		return "nak"
	case ActionTerm:
		return "term"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of consumer counters.
type Stats struct {
	Acked       int64 `json:"acked"`
	Redelivered int64 `json:"redelivered"`
	Terminated  int64 `json:"terminated"`
}

type counters struct {
	acked       atomic.Int64
	redelivered atomic.Int64
	terminated  atomic.Int64
}

// Consumer feeds commerce events from a JetStream durable subscription into
// the sync pipelines. Events arrive on <prefix>.<entity>.
type Consumer struct {
	js         nats.JetStreamContext
	cfg        config.NATSConfig
	invoker    Invoker
	logger     *zap.Logger
	maxDeliver int

	mu       sync.Mutex
	sub      *nats.Subscription
	counters counters
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithMaxDeliver overrides DefaultMaxDeliver.
func WithMaxDeliver(n int) ConsumerOption {
	return func(c *Consumer) {
		if n > 0 {
			c.maxDeliver = n
		}
	}
}

// NewConsumer creates a Consumer. Call Start to subscribe.
func NewConsumer(js nats.JetStreamContext, cfg config.NATSConfig, invoker Invoker, logger *zap.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		js:         js,
		cfg:        cfg,
		invoker:    invoker,
		logger:     logger,
		maxDeliver: DefaultMaxDeliver,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subject is the wildcard subject the consumer listens on.
func (c *Consumer) Subject() string {
	return c.cfg.SubjectPrefix + ".>"
}

// Start ensures the stream exists and subscribes. Deliveries are processed
// with ctx until Stop is called.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub != nil {
		return errors.New("consumer already started")
	}

	if err := c.ensureStream(); err != nil {
		return err
	}

	sub, err := c.js.Subscribe(c.Subject(), func(msg *nats.Msg) {
		c.handle(ctx, msg.Subject, msg.Data, paramsFromHeader(msg.Header), msg)
	},
		nats.Durable(c.cfg.Durable),
		nats.ManualAck(),
		nats.AckWait(c.cfg.AckWait),
		nats.MaxDeliver(c.maxDeliver),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s with durable %s: %w", c.Subject(), c.cfg.Durable, err)
	}
	c.sub = sub

	c.logger.Info("Subscribed to commerce events",
		zap.String("subject", c.Subject()),
		zap.String("stream", c.cfg.Stream),
		zap.String("durable", c.cfg.Durable),
	)
	return nil
}

func (c *Consumer) ensureStream() error {
	if _, err := c.js.StreamInfo(c.cfg.Stream); err == nil {
		return nil
	} else if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", c.cfg.Stream, err)
	}

	c.logger.Info("Creating stream", zap.String("stream", c.cfg.Stream), zap.String("subject", c.Subject()))
	_, err := c.js.AddStream(&nats.StreamConfig{
		Name:     c.cfg.Stream,
		Subjects: []string{c.Subject()},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", c.cfg.Stream, err)
	}
	return nil
}

// Stop drains the subscription so in-flight deliveries finish.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub == nil {
		return nil
	}
	err := c.sub.Drain()
	c.sub = nil
	return err
}

// Stats returns a snapshot of the settle counters.
func (c *Consumer) Stats() Stats {
	return Stats{
		Acked:       c.counters.acked.Load(),
		Redelivered: c.counters.redelivered.Load(),
		Terminated:  c.counters.terminated.Load(),
	}
}

func (c *Consumer) handle(ctx context.Context, subject string, data []byte, env map[string]string, ack acknowledger) Action {
	log := c.logger.With(zap.String("subject", subject))

	entity, err := EntityFromSubject(c.cfg.SubjectPrefix, subject)
	if err != nil {
		log.Warn("Dropping message on unroutable subject", zap.Error(err))
		return c.settle(log, ack, ActionTerm)
	}

	if c.cfg.AckWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.AckWait)
		defer cancel()
	}

	started := time.Now()
	result := c.invoker.Invoke(ctx, entity, app.Params{Event: data, Env: env})
	action := Decide(result)

	fields := []zap.Field{
		zap.String("entity", entity),
		zap.Int("status_code", result.StatusCode),
		zap.Duration("duration", time.Since(started)),
		zap.Stringer("action", action),
	}
	if result.Err != nil {
		fields = append(fields, zap.Error(result.Err))
	}
	if action == ActionAck {
		log.Debug("Event settled", fields...)
	} else {
		log.Warn("Event settled", fields...)
	}
	return c.settle(log, ack, action)
}

func (c *Consumer) settle(log *zap.Logger, ack acknowledger, action Action) Action {
	var err error
	switch action {
	case ActionAck:
		err = ack.Ack()
		c.counters.acked.Add(1)
	case ActionNak:
		err = ack.Nak()
		c.counters.redelivered.Add(1)
	case ActionTerm:
		err = ack.Term()
		c.counters.terminated.Add(1)
	}
	if err != nil {
		log.Error("Failed to settle message", zap.Stringer("action", action), zap.Error(err))
	}
	return action
}

// EntityFromSubject returns the entity token that follows prefix in subject.
func EntityFromSubject(prefix, subject string) (string, error) {
	rest, ok := strings.CutPrefix(subject, prefix+".")
	if !ok || rest == "" || strings.Contains(rest, ".") {
		return "", fmt.Errorf("subject %q is not %s.<entity>", subject, prefix)
	}
	return rest, nil
}

// Decide maps an invocation result to a settle action. Server faults are
// retried; rejected events are never redelivered.
func Decide(result app.Result) Action {
	switch {
	case result.StatusCode >= http.StatusInternalServerError:
		return ActionNak
	case result.StatusCode >= http.StatusBadRequest:
		return ActionTerm
	default:
		return ActionAck
	}
}

func paramsFromHeader(h nats.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	env := map[string]string{}
	for key, values := range h {
		name, ok := strings.CutPrefix(key, EnvHeaderPrefix)
		if !ok || !app.Overridable(name) || len(values) == 0 {
			continue
		}
		env[name] = values[0]
	}
	if len(env) == 0 {
		return nil
	}
	return env
}
