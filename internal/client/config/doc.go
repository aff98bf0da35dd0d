// Package config loads client settings: defaults, then an optional JSON
// file (-c/-config or CONFIG), then command-line flags.
package config
