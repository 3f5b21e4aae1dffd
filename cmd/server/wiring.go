package main

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	app "github.com/erp/commerce-sync/internal/application/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/config"
	"github.com/erp/commerce-sync/internal/infrastructure/persistence"
	"github.com/erp/commerce-sync/internal/interfaces/http/handler"
)

// environmentFromConfig builds the base parameter set of every invocation.
func environmentFromConfig(cfg *config.Config) app.Environment {
	return app.Environment{
		CommerceBaseURL:                 cfg.Commerce.BaseURL,
		CommerceConsumerKey:             cfg.Commerce.ConsumerKey,
		CommerceConsumerSecret:          cfg.Commerce.ConsumerSecret,
		CommerceAccessToken:             cfg.Commerce.AccessToken,
		CommerceAccessTokenSecret:       cfg.Commerce.AccessTokenSecret,
		CommerceAdminToken:              cfg.Commerce.AdminToken,
		DotdigitalAPIURL:                cfg.Dotdigital.APIURL,
		DotdigitalAPIUser:               cfg.Dotdigital.APIUser,
		DotdigitalAPIPassword:           cfg.Dotdigital.APIPassword,
		DotdigitalListCustomer:          cfg.Dotdigital.ListCustomer,
		DotdigitalListSubscriber:        cfg.Dotdigital.ListSubscriber,
		DotdigitalCatalogCollectionName: cfg.Dotdigital.CatalogCollectionName,
		DotdigitalDataFieldMapping:      cfg.Dotdigital.DataFieldMapping,
		LogLevel:                        cfg.Log.Level,
	}
}

// remoteTimeout is the per-request timeout shared by both API clients.
func remoteTimeout(cfg *config.Config) time.Duration {
	return max(cfg.Commerce.Timeout, cfg.Dotdigital.Timeout)
}

// healthChecks probes the optional dependencies that are enabled.
func healthChecks(db *persistence.Database, nc *nats.Conn) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{}
	if db != nil {
		checks["database"] = func(context.Context) error {
			return db.Ping()
		}
	}
	if nc != nil {
		checks["nats"] = func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New(nc.Status().String())
			}
			return nil
		}
	}
	return checks
}
