// Package cache provides optional SQLite-backed storage of lookup
// results. Lookups are idempotent and USPS data changes rarely, so a
// cached answer within its TTL is served without touching the network.
//
// Caching is disabled by default and enabled through configuration.
// The cache stores one row per normalized query key; a repeated lookup
// overwrites the previous row and resets its age.
package cache
