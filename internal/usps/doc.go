// Package usps provides clients for the USPS address-lookup APIs.
//
// Two clients are available. Client speaks the current v3 JSON API at
// apis.usps.com using the OAuth 2.0 client-credentials flow; this is the
// one normally used. LegacyClient speaks the old Web Tools XML API at
// shippingapis.com using a USERID credential, and exists for consumer
// accounts that were never migrated to the developer portal.
//
// Both clients implement the Service interface, so the CLI and the REST
// server do not care which one the configuration selects. Each lookup is
// a single stateless request: there are no retries and no caching at
// this layer. A token is fetched lazily, cached in memory, and refreshed
// shortly before it expires.
//
// The package is designed to be used with dependency injection - create
// a client and pass it to components that need lookups rather than using
// global state.
package usps
