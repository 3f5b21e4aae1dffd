package integration

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

// Clients are the remote API clients of one invocation.
type Clients struct {
	Commerce  integration.CommerceReader
	Marketing integration.MarketingClient
}

// ClientFactory builds fresh clients from the invocation environment.
type ClientFactory interface {
	NewClients(env Environment, logger *zap.Logger) (Clients, error)
}

// Consumer syncs the payload of one event.
type Consumer interface {
	Consume(ctx context.Context, event *Event) (any, error)
}

// pipeline describes how an entity is checked and consumed.
type pipeline struct {
	requiredInputs []string
	// keyField names the payload value identifying the synced record
	keyField string
	// check runs after presence validation and before any remote call
	check       func(value integration.Record) error
	newConsumer func(clients Clients, env Environment, logger *zap.Logger, opts []MapperOption) (Consumer, error)
}

var pipelines = map[integration.Entity]pipeline{
	integration.EntityCustomer: {
		requiredInputs: customerRequiredInputs,
		keyField:       "email",
		newConsumer: func(c Clients, env Environment, logger *zap.Logger, opts []MapperOption) (Consumer, error) {
			return NewCustomerConsumer(c, env, logger, opts...)
		},
	},
	integration.EntityOrder: {
		requiredInputs: orderRequiredInputs,
		keyField:       "increment_id",
		check:          checkOrderItems,
		newConsumer: func(c Clients, env Environment, logger *zap.Logger, _ []MapperOption) (Consumer, error) {
			return NewOrderConsumer(c, logger), nil
		},
	},
	integration.EntityProduct: {
		requiredInputs: productRequiredInputs,
		keyField:       "entity_id",
		newConsumer: func(c Clients, env Environment, logger *zap.Logger, _ []MapperOption) (Consumer, error) {
			return NewProductConsumer(c, env, logger), nil
		},
	},
	integration.EntitySubscriber: {
		requiredInputs: subscriberRequiredInputs,
		keyField:       "subscriber_email",
		newConsumer: func(c Clients, env Environment, logger *zap.Logger, _ []MapperOption) (Consumer, error) {
			return NewSubscriberConsumer(c, env, logger), nil
		},
	},
}

// RequiredInputs returns the payload keys an entity's pipeline requires.
func RequiredInputs(entity integration.Entity) []string {
	return append([]string(nil), pipelines[entity].requiredInputs...)
}

// Preflight runs every check that needs no remote call: required inputs,
// required parameters and payload shape.
func Preflight(entity integration.Entity, env Environment, value integration.Record) error {
	p, ok := pipelines[entity]
	if !ok {
		return integration.ErrUnknownEntity
	}
	if err := RequireInputs(value, p.requiredInputs); err != nil {
		return err
	}
	if err := env.Require(entity); err != nil {
		return err
	}
	if p.check != nil {
		if err := p.check(value); err != nil {
			return err
		}
	}
	return ValidatePayload(entity, value)
}
