// Package server provides the REST API exposing lookups over HTTP.
//
// The API mirrors the CLI: ZIP to city/state, city/state to ZIP, and
// local ZIP validation, plus health and configuration endpoints for
// operators. All endpoints are GET with query parameters and respond
// with JSON.
//
// The handler depends on the usps.Service interface rather than a
// concrete client, so tests run against fakes and the same handler
// serves the OAuth and legacy clients.
package server
