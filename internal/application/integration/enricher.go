package integration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/telemetry"
)

// customerTransientKeys are commerce references resolved during enrichment.
var customerTransientKeys = []string{
	"default_billing",
	"default_shipping",
	"addresses",
	"website_id",
	"store_id",
}

// CustomerEnricher merges a customer event into the canonical commerce
// customer and resolves store, website, group and default addresses.
type CustomerEnricher struct {
	commerce integration.CommerceReader
	logger   *zap.Logger
}

// NewCustomerEnricher creates a CustomerEnricher.
func NewCustomerEnricher(commerce integration.CommerceReader, logger *zap.Logger) *CustomerEnricher {
	return &CustomerEnricher{commerce: commerce, logger: logger}
}

// Enrich returns a new record; event is not modified. Failing to fetch the
// canonical customer is fatal. Store, website and group lookups degrade to a
// warning and leave the corresponding key unset.
func (e *CustomerEnricher) Enrich(ctx context.Context, event integration.Record) (integration.Record, error) {
	ctx, span := telemetry.StartSpan(ctx, "sync.enrich_customer")
	defer span.End()

	canonical, err := e.commerce.GetCustomer(ctx, event["id"])
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("fetch customer: %w", err)
	}

	customer := canonical.Clone()
	for k, v := range event.Clone() {
		customer[k] = v
	}

	if views, err := e.commerce.GetStoreViews(ctx); err != nil {
		e.logger.Warn("Failed to fetch store views", zap.Error(err))
	} else if name := integration.StoreViewName(views, customer["store_id"]); name != "" {
		customer["store_name"] = name
	}

	if websites, err := e.commerce.GetWebsites(ctx); err != nil {
		e.logger.Warn("Failed to fetch websites", zap.Error(err))
	} else if name := integration.WebsiteName(websites, customer["website_id"]); name != "" {
		customer["website_name"] = name
	}

	if groupID, ok := customer["group_id"]; ok && groupID != nil {
		group, err := e.commerce.GetCustomerGroup(ctx, groupID)
		switch {
		case err != nil:
			e.logger.Warn("Failed to fetch customer group", zap.Any("group_id", groupID), zap.Error(err))
		case group != nil && group.Code != "":
			customer["group"] = group.Code
		}
	}

	addresses, _ := customer.Slice("addresses")
	customer["billing_address"] = defaultAddress(addresses, customer["default_billing"])
	customer["shipping_address"] = defaultAddress(addresses, customer["default_shipping"])

	if ext, ok := customer.Map("extension_attributes"); ok {
		if integration.Truthy(ext["is_subscribed"]) {
			ext["is_subscribed"] = "Subscribed"
		} else {
			delete(ext, "is_subscribed")
		}
	}

	for _, key := range customerTransientKeys {
		delete(customer, key)
	}
	return customer, nil
}

// defaultAddress finds the address whose id equals ref, or an empty record.
func defaultAddress(addresses []any, ref any) integration.Record {
	id, ok := integration.ToInt(ref)
	if !ok {
		return integration.Record{}
	}
	for _, entry := range addresses {
		address, ok := integration.AsRecord(entry)
		if !ok {
			continue
		}
		if addressID, ok := integration.ToInt(address["id"]); ok && addressID == id {
			return address.Clone()
		}
	}
	return integration.Record{}
}
