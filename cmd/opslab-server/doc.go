// Package main provides the entry point for opslab-server.
//
// opslab-server is a demo HTTP service for monitoring-stack labs. It
// provides:
//
//   - Health and readiness probes backed by host CPU and memory readings
//   - Synthetic load, error and user-activity endpoints
//   - A Prometheus text exposition endpoint
//
// Usage:
//
//	opslab-server [flags]
//	opslab-server --config /path/to/config.yaml
//
// The server loads configuration, initializes the metrics registry and
// simulator, and serves until SIGINT or SIGTERM.
package main
