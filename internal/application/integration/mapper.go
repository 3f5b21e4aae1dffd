package integration

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/telemetry"
)

// DataFieldMapper projects a record onto the contact data fields defined on
// the marketing account.
type DataFieldMapper struct {
	marketing integration.MarketingClient
	logger    *zap.Logger
	present   integration.Presence
}

// MapperOption configures a DataFieldMapper.
type MapperOption func(*DataFieldMapper)

// WithPresence replaces the predicate deciding whether a source value is set.
// The default is integration.Truthy.
func WithPresence(present integration.Presence) MapperOption {
	return func(m *DataFieldMapper) {
		m.present = present
	}
}

// NewDataFieldMapper creates a DataFieldMapper.
func NewDataFieldMapper(marketing integration.MarketingClient, logger *zap.Logger, opts ...MapperOption) *DataFieldMapper {
	m := &DataFieldMapper{
		marketing: marketing,
		logger:    logger,
		present:   integration.Truthy,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map resolves table against record, restricted to the data fields that
// exist on the account. Table entries without a source path are skipped and
// logged.
func (m *DataFieldMapper) Map(ctx context.Context, table integration.MappingTable, record integration.Record) (map[string]any, error) {
	ctx, span := telemetry.StartSpan(ctx, "sync.map_data_fields")
	defer span.End()

	allowed, err := m.marketing.GetContactDataFields(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	fields, warnings := integration.ResolveFields(table, allowed, record, m.present)
	for _, w := range warnings {
		m.logger.Warn("data field mapping key is missing", zap.String("data_field", w.Field))
	}
	telemetry.SetAttributes(span, "sync.data_fields", len(fields), "sync.mapping_warnings", len(warnings))
	return fields, nil
}
