// Package model defines the core data types for zippuff.
// It contains value objects for ZIP codes and state abbreviations,
// and the lookup result record shared by the CLI, the REST API,
// and the lookup cache.
package model
