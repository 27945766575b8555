// Package main provides the entry point for the zippuff CLI.
//
// zippuff looks up USPS address data: ZIP code to city/state, city/state
// to ZIP code, and local ZIP code validation. It can also serve the same
// lookups over a small REST API.
//
// Usage:
//
//	zippuff zip-to-city 90210
//	zippuff city-to-zip "Beverly Hills" CA
//	zippuff serve
//
// See --help for all available options.
package main

// main is the entry point for zippuff.
func main() {
	Execute()
}
