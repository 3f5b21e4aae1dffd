package integration

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/telemetry"
)

var productRequiredInputs = []string{
	"entity_id",
	"name",
	"sku",
	"stock_data",
	"price",
	"status",
	"type_id",
	"url_key",
	"image",
	"created_at",
	"store_ids",
}

// ProductConsumer syncs a commerce product into the catalog collection.
type ProductConsumer struct {
	commerce   integration.CommerceReader
	upserter   *Upserter
	collection string
	logger     *zap.Logger
}

// NewProductConsumer creates a ProductConsumer writing to the catalog
// collection named in env.
func NewProductConsumer(clients Clients, env Environment, logger *zap.Logger) *ProductConsumer {
	return &ProductConsumer{
		commerce:   clients.Commerce,
		upserter:   NewUpserter(clients.Marketing, logger),
		collection: env.DotdigitalCatalogCollectionName,
		logger:     logger,
	}
}

// Consume resolves the store URLs of the product's first store and upserts
// the catalog record keyed by entity id.
func (c *ProductConsumer) Consume(ctx context.Context, event *Event) (any, error) {
	ctx, span := telemetry.StartSpan(ctx, "sync.product.consume")
	defer span.End()

	product := event.Data.Value
	storeIDs, _ := product.Slice("store_ids")
	if len(storeIDs) == 0 {
		return nil, integration.NewValidationError("Product is not assigned to any store")
	}
	storeID := storeIDs[0]

	linkURL, err := c.storeURL(ctx, storeID, integration.URLTypeLink)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	mediaURL, err := c.storeURL(ctx, storeID, integration.URLTypeMedia)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	entry, err := integration.BuildProductEntry(product, linkURL, mediaURL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, integration.NewValidationError(err.Error())
	}

	key, _ := integration.IDString(product["entity_id"])
	resp, err := c.upserter.UpsertCatalogRecord(ctx, c.collection, key, entry)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	c.logger.Info("Product synced", zap.String("product_id", key), zap.String("collection", c.collection))
	return InsightResponse{Message: MessageProductSynced, Key: key, Response: resp}, nil
}

// storeURL resolves a secure store URL. A store without a config yields ""
// and a warning.
func (c *ProductConsumer) storeURL(ctx context.Context, storeID any, urlType integration.URLType) (string, error) {
	url, err := c.commerce.GetStoreURL(ctx, storeID, urlType, true)
	if errors.Is(err, integration.ErrStoreConfigNotFound) {
		c.logger.Warn("Store config not found", zap.Any("store_id", storeID), zap.String("url_type", string(urlType)))
		return "", nil
	}
	return url, err
}
