package integration

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/telemetry"
)

// Upserter writes insight records with a replace call and falls back to a
// single import when the collection or record does not exist yet.
type Upserter struct {
	marketing integration.MarketingClient
	logger    *zap.Logger
}

// NewUpserter creates an Upserter.
func NewUpserter(marketing integration.MarketingClient, logger *zap.Logger) *Upserter {
	return &Upserter{marketing: marketing, logger: logger}
}

// UpsertCatalogRecord replaces key in the account-scoped catalog collection.
func (u *Upserter) UpsertCatalogRecord(ctx context.Context, collection, key string, payload any) (json.RawMessage, error) {
	return u.upsert(ctx, collection, key,
		func(ctx context.Context) (json.RawMessage, error) {
			return u.marketing.PutAccountInsight(ctx, collection, key, payload)
		},
		integration.NewCatalogImport(collection, key, payload),
	)
}

// UpsertContactOrder replaces key in the "Orders" collection of the contact
// with email.
func (u *Upserter) UpsertContactOrder(ctx context.Context, email, key string, payload any) (json.RawMessage, error) {
	return u.upsert(ctx, integration.OrdersCollection, key,
		func(ctx context.Context) (json.RawMessage, error) {
			return u.marketing.PutContactInsight(ctx, email, integration.OrdersCollection, key, payload)
		},
		integration.NewContactOrderImport(email, key, payload),
	)
}

func (u *Upserter) upsert(
	ctx context.Context,
	collection, key string,
	put func(context.Context) (json.RawMessage, error),
	fallback integration.InsightImport,
) (json.RawMessage, error) {
	ctx, span := telemetry.StartSpan(ctx, "sync.upsert",
		telemetry.WithAttribute(telemetry.SpanAttrCollection, collection),
		telemetry.WithAttribute(telemetry.SpanAttrRecordKey, key),
	)
	defer span.End()

	resp, err := put(ctx)
	if err == nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrFallback, false)
		return resp, nil
	}
	if !integration.IsNotFound(err) {
		telemetry.RecordError(span, err)
		return nil, err
	}

	u.logger.Info("Insight record not found, importing",
		zap.String("collection", collection),
		zap.String("key", key),
	)
	telemetry.AddEvent(span, "import_fallback", telemetry.SpanAttrCollection, collection)
	telemetry.SetAttributes(span, telemetry.SpanAttrFallback, true)

	resp, err = u.marketing.ImportInsightData(ctx, fallback)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}
