// Package confloader provides configuration loading mechanism.
//
// This package implements a layered configuration loader on top of koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables
//  3. Configuration file (YAML)
//  4. Default values
//
// Environment variables are matched against known keys first, so
// OPSLAB_SERVER_RATE_LIMIT resolves to server.rate_limit rather than
// server.rate.limit. The Watcher reports writes to a configuration file
// so callers can re-apply hot-reloadable settings.
package confloader
