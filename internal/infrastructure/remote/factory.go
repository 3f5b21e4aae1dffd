// Package remote builds the commerce and marketing API clients of one sync
// invocation.
package remote

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	app "github.com/erp/commerce-sync/internal/application/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/commerce"
	"github.com/erp/commerce-sync/internal/infrastructure/dotdigital"
)

// Factory implements app.ClientFactory. Clients are created per invocation
// and share only the HTTP transport.
type Factory struct {
	httpClient *http.Client
	timeout    time.Duration
}

var _ app.ClientFactory = (*Factory)(nil)

// Option configures a Factory.
type Option func(*Factory)

// WithHTTPClient sets the HTTP client shared by every created API client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(f *Factory) {
		f.httpClient = httpClient
	}
}

// WithTimeout sets the request timeout of created API clients.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Factory) {
		f.timeout = timeout
	}
}

// NewFactory creates a Factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(f)
	}
	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: f.timeout}
	}
	return f
}

// NewClients builds both API clients from env.
func (f *Factory) NewClients(env app.Environment, logger *zap.Logger) (app.Clients, error) {
	commerceClient, err := commerce.NewClient(&commerce.Config{
		BaseURL:           env.CommerceBaseURL,
		ConsumerKey:       env.CommerceConsumerKey,
		ConsumerSecret:    env.CommerceConsumerSecret,
		AccessToken:       env.CommerceAccessToken,
		AccessTokenSecret: env.CommerceAccessTokenSecret,
		AdminToken:        env.CommerceAdminToken,
		Timeout:           f.timeout,
	}, commerce.WithHTTPClient(f.httpClient), commerce.WithLogger(logger.Named("commerce")))
	if err != nil {
		return app.Clients{}, fmt.Errorf("commerce client: %w", err)
	}

	marketingClient, err := dotdigital.NewClient(&dotdigital.Config{
		APIURL:   env.DotdigitalAPIURL,
		Username: env.DotdigitalAPIUser,
		Password: env.DotdigitalAPIPassword,
		Timeout:  f.timeout,
	}, dotdigital.WithHTTPClient(f.httpClient), dotdigital.WithLogger(logger.Named("dotdigital")))
	if err != nil {
		return app.Clients{}, fmt.Errorf("dotdigital client: %w", err)
	}

	return app.Clients{Commerce: commerceClient, Marketing: marketingClient}, nil
}
