package commerce

import (
	"errors"
	"strings"
	"time"
)

const (
	// restPath is appended to the base URL of the store
	restPath = "rest/V1/"

	// DefaultTimeout is the HTTP timeout used when none is configured
	DefaultTimeout = 30 * time.Second
)

// Errors for commerce client configuration
var (
	ErrConfigMissingBaseURL     = errors.New("commerce: base url is required")
	ErrConfigMissingCredentials = errors.New("commerce: oauth credentials or admin token are required")
)

// Config holds the connection settings of the commerce REST API.
type Config struct {
	// BaseURL is the storefront root, e.g. https://shop.example.com/
	BaseURL string

	// OAuth 1.0a integration credentials
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string

	// AdminToken replaces OAuth signing with a bearer token when set
	AdminToken string

	Timeout time.Duration
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrConfigMissingBaseURL
	}
	if c.AdminToken == "" && (c.ConsumerKey == "" || c.ConsumerSecret == "" ||
		c.AccessToken == "" || c.AccessTokenSecret == "") {
		return ErrConfigMissingCredentials
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// ResourceURL returns the absolute URL of a REST resource.
func (c *Config) ResourceURL(resource string) string {
	return c.BaseURL + restPath + strings.TrimPrefix(resource, "/")
}
