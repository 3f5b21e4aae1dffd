// Package integration contains the commerce to marketing-automation sync bounded context.
// It turns commerce change events (customers, orders, products, subscribers) into
// contact and insight-data payloads for the marketing platform.
//
// Key concepts:
//   - Record: a decoded commerce event payload or REST resource
//   - MappingTable / ResolveFields: data-field mapping from source paths to contact data fields
//   - BuildLineItems / ApplyAddresses / BuildOrderData: order transformation
//   - BuildProductEntry: catalog product transformation
//   - InsightImport: collection provisioning payload for the 404 fallback
//
// Design Pattern: Ports & Adapters
//   - Ports (CommerceReader, MarketingClient) are defined here in the domain layer
//   - Adapters (commerce, dotdigital) are in the infrastructure layer
package integration
