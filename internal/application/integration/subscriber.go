package integration

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/telemetry"
)

var subscriberRequiredInputs = []string{"subscriber_email"}

// Subscriber data fields.
const (
	DataFieldSubscriberStatus = "SUBSCRIBER_STATUS"
	DataFieldStoreName        = "STORE_NAME"
	DataFieldWebsiteName      = "WEBSITE_NAME"
)

// SubscriberConsumer syncs a newsletter subscriber to a marketing contact in
// the subscriber list.
type SubscriberConsumer struct {
	commerce  integration.CommerceReader
	marketing integration.MarketingClient
	list      string
	logger    *zap.Logger
}

// NewSubscriberConsumer creates a SubscriberConsumer.
func NewSubscriberConsumer(clients Clients, env Environment, logger *zap.Logger) *SubscriberConsumer {
	return &SubscriberConsumer{
		commerce:  clients.Commerce,
		marketing: clients.Marketing,
		list:      env.DotdigitalListSubscriber,
		logger:    logger,
	}
}

// Consume resolves the subscriber's store and website names and creates or
// updates the contact.
func (c *SubscriberConsumer) Consume(ctx context.Context, event *Event) (any, error) {
	ctx, span := telemetry.StartSpan(ctx, "sync.subscriber.consume")
	defer span.End()

	list, err := strconv.ParseInt(c.list, 10, 64)
	if err != nil {
		return nil, integration.NewValidationError("invalid parameter(s) 'DOTDIGITAL_LIST_SUBSCRIBER'")
	}

	subscriber := event.Data.Value
	views, err := c.commerce.GetStoreViews(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	websites, err := c.commerce.GetWebsites(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	fields := map[string]any{
		DataFieldSubscriberStatus: integration.SubscriberStatusName(subscriber["subscriber_status"]),
		DataFieldStoreName:        integration.StoreViewName(views, subscriber["store_id"]),
		DataFieldWebsiteName:      integration.WebsiteName(websites, event.Data.Metadata["websiteId"]),
	}

	email := subscriber.String("subscriber_email")
	contact := integration.NewContact(email).WithDataFields(fields).WithLists(list)
	resp, err := c.marketing.PatchContactByEmail(ctx, email, contact, integration.MergeOptionOverwrite)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	c.logger.Info("Subscriber synced", zap.Int64("list", list))
	return ContactResponse{Message: MessageContactSynced, Contact: resp}, nil
}
