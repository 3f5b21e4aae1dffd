package integration

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/telemetry"
)

var customerRequiredInputs = []string{"id", "email"}

// CustomerConsumer syncs a commerce customer to a marketing contact.
type CustomerConsumer struct {
	enricher  *CustomerEnricher
	mapper    *DataFieldMapper
	marketing integration.MarketingClient
	table     integration.MappingTable
	lists     []int64
	logger    *zap.Logger
}

// NewCustomerConsumer parses the data field mapping of env and wires the
// enricher and mapper.
func NewCustomerConsumer(clients Clients, env Environment, logger *zap.Logger, opts ...MapperOption) (*CustomerConsumer, error) {
	table, err := integration.ParseMappingTable(env.DotdigitalDataFieldMapping)
	if err != nil {
		return nil, err
	}
	var lists []int64
	if env.DotdigitalListCustomer != "" {
		id, err := strconv.ParseInt(env.DotdigitalListCustomer, 10, 64)
		if err != nil {
			return nil, integration.NewValidationError("invalid parameter(s) 'DOTDIGITAL_LIST_CUSTOMER'")
		}
		lists = []int64{id}
	}
	return &CustomerConsumer{
		enricher:  NewCustomerEnricher(clients.Commerce, logger),
		mapper:    NewDataFieldMapper(clients.Marketing, logger, opts...),
		marketing: clients.Marketing,
		table:     table,
		lists:     lists,
		logger:    logger,
	}, nil
}

// Consume enriches the customer, maps it onto the account data fields and
// creates or updates the contact.
func (c *CustomerConsumer) Consume(ctx context.Context, event *Event) (any, error) {
	ctx, span := telemetry.StartSpan(ctx, "sync.customer.consume")
	defer span.End()

	value := event.Data.Value
	customer, err := c.enricher.Enrich(ctx, value)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	fields, err := c.mapper.Map(ctx, c.table, customer)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	lists := c.lists
	if integration.Truthy(value["lists"]) {
		lists = integration.ListIDs(value["lists"])
	}

	email := value.String("email")
	contact := integration.NewContact(email).WithDataFields(fields)
	if lists != nil {
		contact = contact.WithLists(lists...)
	}
	resp, err := c.marketing.PatchContactByEmail(ctx, email, contact, integration.MergeOptionOverwrite)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	c.logger.Info("Contact synced", zap.Int("data_fields", len(fields)), zap.Int64s("lists", lists))
	return ContactResponse{Message: MessageContactSynced, Contact: resp}, nil
}
