package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the commerce API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client is a REST client of the commerce platform. Requests are signed with
// OAuth 1.0a unless an admin token is configured. Store configs are fetched
// once per client.
type Client struct {
	config     *Config
	httpClient *http.Client
	signer     *Signer
	logger     *zap.Logger

	mu           sync.Mutex
	storeConfigs []integration.StoreConfig
}

var _ integration.CommerceReader = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSigner overrides the OAuth signer
func WithSigner(signer *Signer) Option {
	return func(c *Client) {
		c.signer = signer
	}
}

// NewClient creates a commerce client with the given configuration
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
	}
	if config.AdminToken == "" {
		c.signer = NewSigner(config.ConsumerKey, config.ConsumerSecret, config.AccessToken, config.AccessTokenSecret)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("commerce")
	return c, nil
}

// ---------------------------------------------------------------------------
// CommerceReader
// ---------------------------------------------------------------------------

// GetCustomer fetches the canonical customer record
func (c *Client) GetCustomer(ctx context.Context, customerID any) (integration.Record, error) {
	id, ok := integration.IDString(customerID)
	if !ok {
		return nil, integration.NewValidationError("invalid customer id")
	}
	body, err := c.doRequest(ctx, http.MethodGet, "customers/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	record, err := integration.DecodeRecord(body)
	if err != nil {
		return nil, fmt.Errorf("%w: customer %s: %v", integration.ErrRemoteInvalidPayload, id, err)
	}
	return record, nil
}

// GetStoreViews lists all store views
func (c *Client) GetStoreViews(ctx context.Context) ([]integration.StoreView, error) {
	var views []integration.StoreView
	if err := c.getJSON(ctx, "store/storeViews", &views); err != nil {
		return nil, err
	}
	return views, nil
}

// GetWebsites lists all websites
func (c *Client) GetWebsites(ctx context.Context) ([]integration.Website, error) {
	var websites []integration.Website
	if err := c.getJSON(ctx, "store/websites", &websites); err != nil {
		return nil, err
	}
	return websites, nil
}

// GetCustomerGroup fetches a customer group
func (c *Client) GetCustomerGroup(ctx context.Context, groupID any) (*integration.CustomerGroup, error) {
	id, ok := integration.IDString(groupID)
	if !ok {
		return nil, integration.NewValidationError("invalid customer group id")
	}
	var group integration.CustomerGroup
	if err := c.getJSON(ctx, "customerGroups/"+url.PathEscape(id), &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// GetStoreConfigs lists the store configs, caching them for the client lifetime
func (c *Client) GetStoreConfigs(ctx context.Context) ([]integration.StoreConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storeConfigs != nil {
		return c.storeConfigs, nil
	}

	var configs []integration.StoreConfig
	if err := c.getJSON(ctx, "store/storeConfigs", &configs); err != nil {
		return nil, err
	}
	if configs == nil {
		configs = []integration.StoreConfig{}
	}
	c.storeConfigs = configs
	return configs, nil
}

// GetStoreURL resolves a store URL by store id and URL type
func (c *Client) GetStoreURL(ctx context.Context, storeID any, urlType integration.URLType, secure bool) (string, error) {
	configs, err := c.GetStoreConfigs(ctx)
	if err != nil {
		return "", err
	}
	storeURL, found := integration.FindStoreURL(configs, storeID, urlType, secure)
	if !found {
		return "", fmt.Errorf("%w: store %v", integration.ErrStoreConfigNotFound, storeID)
	}
	return storeURL, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

func (c *Client) getJSON(ctx context.Context, resource string, out any) error {
	body, err := c.doRequest(ctx, http.MethodGet, resource)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", integration.ErrRemoteInvalidPayload, resource, err)
	}
	return nil
}

// doRequest performs an authorized request against a REST resource
func (c *Client) doRequest(ctx context.Context, method, resource string) ([]byte, error) {
	resourceURL := c.config.ResourceURL(resource)

	req, err := http.NewRequestWithContext(ctx, method, resourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("commerce: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.signer == nil {
		req.Header.Set("Authorization", "Bearer "+c.config.AdminToken)
	} else {
		auth, err := c.signer.Authorization(method, resourceURL)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", auth)
	}

	c.logger.Debug("Fetching commerce resource",
		zap.String("method", method),
		zap.String("url", resourceURL),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Commerce request failed", zap.String("url", resourceURL), zap.Error(err))
		return nil, fmt.Errorf("%w: %s %s: %v", integration.ErrRemoteRequestFailed, method, resourceURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("commerce: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &integration.HTTPError{
			StatusCode:  resp.StatusCode,
			Description: errorMessage(body),
			Method:      method,
			URL:         resourceURL,
		}
		c.logger.Error("Commerce request rejected", zap.Error(httpErr))
		return nil, httpErr
	}

	return body, nil
}

// errorBody is the error document of the commerce REST API
type errorBody struct {
	Message    string          `json:"message"`
	Parameters json.RawMessage `json:"parameters"`
}

// errorMessage renders the error message with its %placeholders substituted.
func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Message == "" {
		return strings.TrimSpace(string(body))
	}

	msg := eb.Message
	var named map[string]any
	if err := json.Unmarshal(eb.Parameters, &named); err == nil {
		keys := make([]string, 0, len(named))
		for k := range named {
			keys = append(keys, k)
		}
		// longest first so %name never clobbers %nameSuffix
		sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
		for _, k := range keys {
			msg = strings.ReplaceAll(msg, "%"+k, integration.StringOf(named[k]))
		}
		return msg
	}
	var positional []any
	if err := json.Unmarshal(eb.Parameters, &positional); err == nil {
		for i, v := range positional {
			msg = strings.ReplaceAll(msg, fmt.Sprintf("%%%d", i+1), integration.StringOf(v))
		}
	}
	return msg
}
