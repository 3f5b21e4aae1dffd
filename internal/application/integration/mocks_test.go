package integration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

// MockCommerceReader is a mock implementation of integration.CommerceReader
type MockCommerceReader struct {
	mock.Mock
}

func (m *MockCommerceReader) GetCustomer(ctx context.Context, customerID any) (integration.Record, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.Record), args.Error(1)
}

func (m *MockCommerceReader) GetStoreViews(ctx context.Context) ([]integration.StoreView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.StoreView), args.Error(1)
}

func (m *MockCommerceReader) GetWebsites(ctx context.Context) ([]integration.Website, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Website), args.Error(1)
}

func (m *MockCommerceReader) GetCustomerGroup(ctx context.Context, groupID any) (*integration.CustomerGroup, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CustomerGroup), args.Error(1)
}

func (m *MockCommerceReader) GetStoreConfigs(ctx context.Context) ([]integration.StoreConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.StoreConfig), args.Error(1)
}

func (m *MockCommerceReader) GetStoreURL(ctx context.Context, storeID any, urlType integration.URLType, secure bool) (string, error) {
	args := m.Called(ctx, storeID, urlType, secure)
	return args.String(0), args.Error(1)
}

// MockMarketingClient is a mock implementation of integration.MarketingClient
type MockMarketingClient struct {
	mock.Mock
}

func (m *MockMarketingClient) GetContactDataFields(ctx context.Context) ([]integration.DataField, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.DataField), args.Error(1)
}

func (m *MockMarketingClient) PatchContactByEmail(ctx context.Context, email string, contact integration.Contact, mergeOption integration.MergeOption) (json.RawMessage, error) {
	args := m.Called(ctx, email, contact, mergeOption)
	return rawResult(args)
}

func (m *MockMarketingClient) PutAccountInsight(ctx context.Context, collection, key string, payload any) (json.RawMessage, error) {
	args := m.Called(ctx, collection, key, payload)
	return rawResult(args)
}

func (m *MockMarketingClient) PutContactInsight(ctx context.Context, email, collection, key string, payload any) (json.RawMessage, error) {
	args := m.Called(ctx, email, collection, key, payload)
	return rawResult(args)
}

func (m *MockMarketingClient) ImportInsightData(ctx context.Context, request integration.InsightImport) (json.RawMessage, error) {
	args := m.Called(ctx, request)
	return rawResult(args)
}

func rawResult(args mock.Arguments) (json.RawMessage, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of integration.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

// MockOutcomeRecorder is a mock implementation of integration.OutcomeRecorder
type MockOutcomeRecorder struct {
	mock.Mock
}

func (m *MockOutcomeRecorder) RecordOutcome(ctx context.Context, outcome integration.Outcome) error {
	return m.Called(ctx, outcome).Error(0)
}

// stubFactory hands out the same mocks on every call.
type stubFactory struct {
	commerce  *MockCommerceReader
	marketing *MockMarketingClient
	calls     int
	err       error
}

func (f *stubFactory) NewClients(_ Environment, _ *zap.Logger) (Clients, error) {
	f.calls++
	if f.err != nil {
		return Clients{}, f.err
	}
	return Clients{Commerce: f.commerce, Marketing: f.marketing}, nil
}

func newStubFactory() *stubFactory {
	return &stubFactory{commerce: new(MockCommerceReader), marketing: new(MockMarketingClient)}
}

// testEnvironment has every parameter of every pipeline set.
func testEnvironment() Environment {
	return Environment{
		CommerceBaseURL:                 "https://shop.test/",
		CommerceConsumerKey:             "ck",
		CommerceConsumerSecret:          "cs",
		CommerceAccessToken:             "at",
		CommerceAccessTokenSecret:       "ats",
		DotdigitalAPIURL:                "https://r1-api.dotdigital.test",
		DotdigitalAPIUser:               "apiuser",
		DotdigitalAPIPassword:           "secret",
		DotdigitalListCustomer:          "11",
		DotdigitalListSubscriber:        "22",
		DotdigitalCatalogCollectionName: "Catalog_Default",
		DotdigitalDataFieldMapping:      `{"FIRSTNAME":"firstname","GROUP":"group","CITY":"billing_address.city"}`,
	}
}

func record(t interface{ Fatalf(string, ...any) }, raw string) integration.Record {
	r, err := integration.DecodeRecord([]byte(raw))
	if err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return r
}
