package integration

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/telemetry"
)

var orderRequiredInputs = []string{
	"entity_id",
	"grand_total",
	"order_currency_code",
	"created_at",
	"subtotal",
	"items",
	"customer_email",
	"increment_id",
	"quote_id",
	"status",
	"addresses",
	"store_name",
	"discount_amount",
	"payment",
	"shipping_description",
	"shipping_amount",
}

func checkOrderItems(order integration.Record) error {
	if _, ok := order.Slice("items"); !ok {
		return integration.NewValidationError("Order does not contain any items")
	}
	return nil
}

// OrderConsumer syncs a commerce order into the contact's orders collection.
type OrderConsumer struct {
	marketing integration.MarketingClient
	upserter  *Upserter
	logger    *zap.Logger
}

// NewOrderConsumer creates an OrderConsumer.
func NewOrderConsumer(clients Clients, logger *zap.Logger) *OrderConsumer {
	return &OrderConsumer{
		marketing: clients.Marketing,
		upserter:  NewUpserter(clients.Marketing, logger),
		logger:    logger,
	}
}

// Consume makes sure the contact exists, then upserts the order record keyed
// by its increment id.
func (c *OrderConsumer) Consume(ctx context.Context, event *Event) (any, error) {
	ctx, span := telemetry.StartSpan(ctx, "sync.order.consume")
	defer span.End()

	order := event.Data.Value
	email := order.String("customer_email")

	if _, err := c.marketing.PatchContactByEmail(ctx, email, integration.NewContact(email), integration.MergeOptionOverwrite); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	data, err := integration.BuildOrderData(order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, integration.NewValidationError(err.Error())
	}

	resp, err := c.upserter.UpsertContactOrder(ctx, email, data.ID, data)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	c.logger.Info("Order synced", zap.String("order_id", data.ID), zap.Int("products", len(data.Products)))
	return InsightResponse{Message: MessageOrderSynced, Key: data.ID, Response: resp}, nil
}
