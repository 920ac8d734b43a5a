// Package config provides server configuration for opslab-server.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (listen address, TLS pair, bucket layout)
//   - sanitize.go: Log sanitization (hide the metrics token)
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
