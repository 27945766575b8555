package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LookupSource identifies where a lookup result came from.
type LookupSource string

const (
	// SourceAPI indicates the result came from a live USPS API call.
	SourceAPI LookupSource = "api"
	// SourceCache indicates the result was served from the local cache.
	SourceCache LookupSource = "cache"
)

// LookupResult is the outcome of a single ZIP ⇄ city/state lookup.
// Each lookup produces at most one result; a no-match response from
// USPS surfaces as an error, never as a zero-value result.
type LookupResult struct {
	// Query is the normalized query string that produced this result,
	// e.g. "zip:90210" or "city:BEVERLY HILLS,CA". It doubles as the
	// cache key.
	Query string `json:"query"`

	// ZIPCode is the 5-digit ZIP code returned by USPS.
	ZIPCode string `json:"zipcode"`

	// City is the city name exactly as USPS returns it (all caps).
	City string `json:"city"`

	// State is the two-letter state abbreviation.
	State string `json:"state"`

	// Source records whether the result came from the API or the cache.
	Source LookupSource `json:"source"`

	// QueriedAt is when the lookup completed, in UTC.
	QueriedAt time.Time `json:"queriedAt"`

	// Elapsed is how long the lookup took, including the network round
	// trip for API results. Zero for cache hits.
	Elapsed time.Duration `json:"elapsedNs"`
}

// cityCaser title-cases city names for display. USPS returns city names
// in all caps ("BEVERLY HILLS"); American English casing reads better in
// terminal and report output.
var cityCaser = cases.Title(language.AmericanEnglish)

// DisplayCity returns the city name title-cased for human-readable output.
// The raw City field is left untouched so JSON output and cache entries
// round-trip exactly what USPS returned.
func (r *LookupResult) DisplayCity() string {
	return cityCaser.String(r.City)
}

// ZIPQuery returns the canonical query string for a ZIP → city/state lookup.
func ZIPQuery(zip ZIPCode) string {
	return "zip:" + zip.String()
}

// CityStateQuery returns the canonical query string for a city/state → ZIP
// lookup. The city is upper-cased so that cache keys are case-insensitive.
func CityStateQuery(city string, state StateCode) string {
	return "city:" + strings.ToUpper(strings.TrimSpace(city)) + "," + state.String()
}
