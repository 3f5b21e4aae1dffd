package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Commerce   CommerceConfig
	Dotdigital DotdigitalConfig
	Sync       SyncConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	Telemetry  TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// CommerceConfig holds the commerce REST API credentials.
// Values may be empty; each sync entity validates what it needs per invocation.
type CommerceConfig struct {
	BaseURL           string
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
	AdminToken        string // Bearer token used instead of OAuth1 when set
	Timeout           time.Duration
}

// DotdigitalConfig holds the marketing platform API settings.
type DotdigitalConfig struct {
	APIURL                string
	APIUser               string
	APIPassword           string
	ListCustomer          string
	ListSubscriber        string
	CatalogCollectionName string
	DataFieldMapping      string // JSON object: data field name -> source path
	Timeout               time.Duration
}

// SyncConfig holds invocation-level settings
type SyncConfig struct {
	IdempotencyEnabled  bool
	IdempotencyTTL      time.Duration
	OutcomeLogEnabled   bool
	// OutcomeLogRetention is how long outcomes are kept; 0 keeps them forever
	OutcomeLogRetention time.Duration
	PurgeInterval       time.Duration
}

// DatabaseConfig holds database connection settings for the sync outcome log
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// NATSConfig holds the event subscription settings
type NATSConfig struct {
	Enabled       bool
	URL           string
	Stream        string
	SubjectPrefix string // events arrive on <prefix>.<entity>
	Durable       string
	AckWait       time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled               bool    // Whether to enable tracing export
	CollectorEndpoint     string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio         float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName           string
	Insecure              bool
	MetricsEnabled        bool
	MetricsExportInterval time.Duration
	DBTraceEnabled        bool
}

// envAliases binds config keys to the plain environment names used by the
// commerce event integration, in addition to the SYNC_ prefixed form.
var envAliases = map[string]string{
	"log.level":                          "LOG_LEVEL",
	"commerce.base_url":                  "COMMERCE_BASE_URL",
	"commerce.consumer_key":              "COMMERCE_CONSUMER_KEY",
	"commerce.consumer_secret":           "COMMERCE_CONSUMER_SECRET",
	"commerce.access_token":              "COMMERCE_ACCESS_TOKEN",
	"commerce.access_token_secret":       "COMMERCE_ACCESS_TOKEN_SECRET",
	"commerce.admin_token":               "COMMERCE_ADMIN_TOKEN",
	"dotdigital.api_url":                 "DOTDIGITAL_API_URL",
	"dotdigital.api_user":                "DOTDIGITAL_API_USER",
	"dotdigital.api_password":            "DOTDIGITAL_API_PASSWORD",
	"dotdigital.list_customer":           "DOTDIGITAL_LIST_CUSTOMER",
	"dotdigital.list_subscriber":         "DOTDIGITAL_LIST_SUBSCRIBER",
	"dotdigital.catalog_collection_name": "DOTDIGITAL_CATALOG_COLLECTION_NAME",
	"dotdigital.datafield_mapping":       "DOTDIGITAL_DATAFIELD_MAPPING",
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SYNC_ prefix (e.g., SYNC_REDIS_HOST) or their plain alias
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		prefixed := "SYNC_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", alias, err)
		}
	}

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Commerce: CommerceConfig{
			BaseURL:           v.GetString("commerce.base_url"),
			ConsumerKey:       v.GetString("commerce.consumer_key"),
			ConsumerSecret:    v.GetString("commerce.consumer_secret"),
			AccessToken:       v.GetString("commerce.access_token"),
			AccessTokenSecret: v.GetString("commerce.access_token_secret"),
			AdminToken:        v.GetString("commerce.admin_token"),
			Timeout:           v.GetDuration("commerce.timeout"),
		},
		Dotdigital: DotdigitalConfig{
			APIURL:                v.GetString("dotdigital.api_url"),
			APIUser:               v.GetString("dotdigital.api_user"),
			APIPassword:           v.GetString("dotdigital.api_password"),
			ListCustomer:          v.GetString("dotdigital.list_customer"),
			ListSubscriber:        v.GetString("dotdigital.list_subscriber"),
			CatalogCollectionName: v.GetString("dotdigital.catalog_collection_name"),
			DataFieldMapping:      v.GetString("dotdigital.datafield_mapping"),
			Timeout:               v.GetDuration("dotdigital.timeout"),
		},
		Sync: SyncConfig{
			IdempotencyEnabled:  v.GetBool("sync.idempotency_enabled"),
			IdempotencyTTL:      v.GetDuration("sync.idempotency_ttl"),
			OutcomeLogEnabled:   v.GetBool("sync.outcome_log_enabled"),
			OutcomeLogRetention: v.GetDuration("sync.outcome_log_retention"),
			PurgeInterval:       v.GetDuration("sync.purge_interval"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("database.enabled"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		NATS: NATSConfig{
			Enabled:       v.GetBool("nats.enabled"),
			URL:           v.GetString("nats.url"),
			Stream:        v.GetString("nats.stream"),
			SubjectPrefix: v.GetString("nats.subject_prefix"),
			Durable:       v.GetString("nats.durable"),
			AckWait:       v.GetDuration("nats.ack_wait"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsEnabled:        v.GetBool("telemetry.metrics_enabled"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			DBTraceEnabled:        v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "commerce-sync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 5 << 20 // 5MB
	}
	if cfg.Commerce.Timeout == 0 {
		cfg.Commerce.Timeout = 30 * time.Second
	}
	if cfg.Dotdigital.Timeout == 0 {
		cfg.Dotdigital.Timeout = 30 * time.Second
	}
	if cfg.Sync.IdempotencyTTL == 0 {
		cfg.Sync.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Sync.PurgeInterval == 0 {
		cfg.Sync.PurgeInterval = time.Hour
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "commerce_sync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.NATS.Stream == "" {
		cfg.NATS.Stream = "COMMERCE"
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "commerce"
	}
	if cfg.NATS.Durable == "" {
		cfg.NATS.Durable = "commerce-sync"
	}
	if cfg.NATS.AckWait == 0 {
		cfg.NATS.AckWait = 60 * time.Second
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Enabled {
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be positive")
		}
		if c.Database.MaxIdleConns < 0 {
			return fmt.Errorf("database.max_idle_conns cannot be negative")
		}
		if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
			return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
				c.Database.MaxIdleConns, c.Database.MaxOpenConns)
		}
	}

	if c.Sync.OutcomeLogEnabled && !c.Database.Enabled {
		return fmt.Errorf("sync.outcome_log_enabled requires database.enabled")
	}
	if c.Sync.IdempotencyTTL < 0 {
		return fmt.Errorf("sync.idempotency_ttl cannot be negative")
	}
	if c.Sync.OutcomeLogRetention < 0 {
		return fmt.Errorf("sync.outcome_log_retention cannot be negative")
	}
	if c.Sync.PurgeInterval < 0 {
		return fmt.Errorf("sync.purge_interval cannot be negative")
	}

	if c.NATS.Enabled && strings.ContainsAny(c.NATS.SubjectPrefix, " *>") {
		return fmt.Errorf("nats.subject_prefix %q must be a literal subject", c.NATS.SubjectPrefix)
	}

	if c.App.Env == "production" {
		if c.Database.Enabled && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Commerce.BaseURL != "" && !strings.HasPrefix(c.Commerce.BaseURL, "https://") {
			return fmt.Errorf("commerce.base_url must use https in production")
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
