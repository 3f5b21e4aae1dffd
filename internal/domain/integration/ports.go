package integration

import (
	"context"
	"encoding/json"
	"time"
)

// ---------------------------------------------------------------------------
// CommerceReader
// ---------------------------------------------------------------------------

// CommerceReader is the read API of the commerce platform.
// Implementations return *HTTPError for non-2xx responses. A reader instance
// may cache store configs for its lifetime and must not be shared across
// invocations.
type CommerceReader interface {
	// GetCustomer fetches the canonical customer record by id.
	GetCustomer(ctx context.Context, customerID any) (Record, error)

	// GetStoreViews lists all store views.
	GetStoreViews(ctx context.Context) ([]StoreView, error)

	// GetWebsites lists all websites.
	GetWebsites(ctx context.Context) ([]Website, error)

	// GetCustomerGroup fetches a customer group by id.
	GetCustomerGroup(ctx context.Context, groupID any) (*CustomerGroup, error)

	// GetStoreConfigs lists the store configs of every store view.
	GetStoreConfigs(ctx context.Context) ([]StoreConfig, error)

	// GetStoreURL resolves a store URL of the given type. It returns
	// ErrStoreConfigNotFound when no store config matches storeID.
	GetStoreURL(ctx context.Context, storeID any, urlType URLType, secure bool) (string, error)
}

// ---------------------------------------------------------------------------
// MarketingClient
// ---------------------------------------------------------------------------

// MarketingClient is the API of the marketing-automation platform.
// Implementations return *HTTPError for non-2xx responses and the raw
// response body on success.
type MarketingClient interface {
	// GetContactDataFields lists the contact data fields defined on the account.
	GetContactDataFields(ctx context.Context) ([]DataField, error)

	// PatchContactByEmail creates or updates the contact with email.
	PatchContactByEmail(ctx context.Context, email string, contact Contact, mergeOption MergeOption) (json.RawMessage, error)

	// PutAccountInsight replaces record key in an account-scoped collection.
	PutAccountInsight(ctx context.Context, collection, key string, payload any) (json.RawMessage, error)

	// PutContactInsight replaces record key in a collection of the contact with email.
	PutContactInsight(ctx context.Context, email, collection, key string, payload any) (json.RawMessage, error)

	// ImportInsightData imports records, creating the collection when missing.
	ImportInsightData(ctx context.Context, request InsightImport) (json.RawMessage, error)
}

// ---------------------------------------------------------------------------
// IdempotencyStore
// ---------------------------------------------------------------------------

// IdempotencyStore remembers which events were already synced.
type IdempotencyStore interface {
	// MarkProcessed records key. It returns false when key was already marked.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key was marked and has not expired.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases the resources held by the store.
	Close() error
}
