package integration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

func TestDataFieldMapper_Map(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	marketing := new(MockMarketingClient)
	marketing.On("GetContactDataFields", mock.Anything).Return([]integration.DataField{
		{Name: "FIRSTNAME"},
		{Name: "CITY"},
		{Name: "POINTS"},
		{Name: "UNMAPPED"},
	}, nil)

	table := integration.MappingTable{
		"FIRSTNAME": "firstname",
		"CITY":      "billing_address.city",
		"POINTS":    "points",
		"UNMAPPED":  "",
		"UNKNOWN":   "email",
	}
	customer := integration.Record{
		"firstname":       "Ada",
		"email":           "ada@shop.test",
		"points":          json.Number("0"),
		"billing_address": integration.Record{"city": "London"},
	}

	fields, err := NewDataFieldMapper(marketing, zap.New(core)).Map(context.Background(), table, customer)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"FIRSTNAME": "Ada", "CITY": "London"}, fields)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "data field mapping key is missing", entry.Message)
	assert.Equal(t, "UNMAPPED", entry.ContextMap()["data_field"])
}

func TestDataFieldMapper_WithPresence(t *testing.T) {
	marketing := new(MockMarketingClient)
	marketing.On("GetContactDataFields", mock.Anything).Return([]integration.DataField{{Name: "POINTS"}}, nil)

	mapper := NewDataFieldMapper(marketing, zap.NewNop(), WithPresence(integration.NotNil))
	fields, err := mapper.Map(context.Background(), integration.MappingTable{"POINTS": "points"}, integration.Record{"points": json.Number("0")})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"POINTS": json.Number("0")}, fields)
}

func TestDataFieldMapper_FetchFailure(t *testing.T) {
	marketing := new(MockMarketingClient)
	marketing.On("GetContactDataFields", mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := NewDataFieldMapper(marketing, zap.NewNop()).Map(context.Background(), integration.MappingTable{}, integration.Record{})
	assert.EqualError(t, err, "connection refused")
}
