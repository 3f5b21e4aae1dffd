// Package dotdigital is the REST client of the Dotdigital marketing platform.
package dotdigital

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

const (
	// maxResponseSize is the maximum allowed response size (10MB)
	maxResponseSize = 10 * 1024 * 1024

	// DefaultTimeout is the HTTP timeout used when none is configured
	DefaultTimeout = 30 * time.Second
)

// Errors for client configuration
var (
	ErrConfigMissingAPIURL      = errors.New("dotdigital: api url is required")
	ErrConfigMissingCredentials = errors.New("dotdigital: api user and password are required")
)

// Config holds the API endpoint and the API user credentials.
type Config struct {
	APIURL   string
	Username string
	Password string
	Timeout  time.Duration
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		return ErrConfigMissingAPIURL
	}
	if c.Username == "" || c.Password == "" {
		return ErrConfigMissingCredentials
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// Client talks JSON over basic auth. The contact data field list is fetched
// once per client.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger

	mu         sync.Mutex
	dataFields []integration.DataField
}

var _ integration.MarketingClient = (*Client)(nil)

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

// NewClient creates a client with the given configuration
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("dotdigital")
	return c, nil
}

// ---------------------------------------------------------------------------
// Contacts
// ---------------------------------------------------------------------------

// GetContactDataFields lists the contact data fields of the account
func (c *Client) GetContactDataFields(ctx context.Context) ([]integration.DataField, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dataFields != nil {
		return c.dataFields, nil
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/v2/data-fields", nil, nil)
	if err != nil {
		return nil, err
	}
	var fields []integration.DataField
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: data fields: %v", integration.ErrRemoteInvalidPayload, err)
	}
	if fields == nil {
		fields = []integration.DataField{}
	}
	c.dataFields = fields
	return fields, nil
}

// PatchContactByEmail creates or updates a contact identified by email
func (c *Client) PatchContactByEmail(ctx context.Context, email string, contact integration.Contact, mergeOption integration.MergeOption) (json.RawMessage, error) {
	if mergeOption == "" {
		mergeOption = integration.MergeOptionOverwrite
	}
	query := url.Values{"merge-option": []string{string(mergeOption)}}
	return c.doRequest(ctx, http.MethodPatch, "/contacts/v3/email/"+url.PathEscape(email), query, contact)
}

// ---------------------------------------------------------------------------
// Insight data
// ---------------------------------------------------------------------------

// PutAccountInsight creates or replaces a record of an account collection
func (c *Client) PutAccountInsight(ctx context.Context, collection, key string, payload any) (json.RawMessage, error) {
	path := "/insightData/v3/account/" + url.PathEscape(collection) + "/" + url.PathEscape(key)
	return c.doRequest(ctx, http.MethodPut, path, nil, payload)
}

// PutContactInsight creates or replaces a record of a contact collection
func (c *Client) PutContactInsight(ctx context.Context, email, collection, key string, payload any) (json.RawMessage, error) {
	path := "/insightData/v3/contacts/email/" + url.PathEscape(email) + "/" +
		url.PathEscape(collection) + "/" + url.PathEscape(key)
	return c.doRequest(ctx, http.MethodPut, path, nil, payload)
}

// ImportInsightData imports records, creating the collection when it is missing
func (c *Client) ImportInsightData(ctx context.Context, request integration.InsightImport) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/insightData/v3/import", nil, request)
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest sends a JSON request and returns the raw response body
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) (json.RawMessage, error) {
	endpoint := c.config.APIURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("dotdigital: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("dotdigital: failed to create request: %w", err)
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Calling dotdigital",
		zap.String("method", method),
		zap.String("url", endpoint),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Dotdigital request failed", zap.String("url", endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: %s %s: %v", integration.ErrRemoteRequestFailed, method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("dotdigital: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := parseError(resp.StatusCode, body)
		httpErr.Method = method
		httpErr.URL = endpoint
		// 404 on insight data is an expected first write to a new collection
		if resp.StatusCode == http.StatusNotFound {
			c.logger.Info("Dotdigital resource not found", zap.Error(httpErr))
		} else {
			c.logger.Error("Dotdigital request rejected", zap.Error(httpErr))
		}
		return nil, httpErr
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// errorBody covers both the v3 and the v2 error documents
type errorBody struct {
	ErrorCode   string `json:"errorCode"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func parseError(status int, body []byte) *integration.HTTPError {
	httpErr := &integration.HTTPError{StatusCode: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		httpErr.Description = strings.TrimSpace(string(body))
		return httpErr
	}

	httpErr.Code = eb.ErrorCode
	httpErr.Description = eb.Description
	if httpErr.Description == "" {
		httpErr.Description = eb.Message
	}
	return httpErr
}
