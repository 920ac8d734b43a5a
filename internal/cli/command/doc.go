// Package command provides CLI command definitions for opslab-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags, client construction
//   - health.go: probe /health
//   - metrics.go: scrape and filter the exposition endpoint
//   - traffic.go: drive the simulation endpoints at a fixed rate
//
// Commands parse flags, call the server through internal/cli/connection,
// and print through internal/cli/output.
package command
