// Package config provides configuration structures and utilities for zippuff.
// Settings resolve in layers: built-in defaults are overridden by a YAML
// configuration file, which is overridden by environment variables, which
// are overridden by CLI flags. Credentials are validated before any
// network call is attempted.
package config
