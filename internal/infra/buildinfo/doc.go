// Package buildinfo provides build information for opslab binaries.
//
// This package exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//
// GoVersion is taken from the running binary. When Commit was not
// injected, the VCS revision recorded by the go command is used.
//
// Usage:
//
//	go build -ldflags "-X github.com/yndnr/opslab-go/internal/infra/buildinfo.Version=1.0.0"
package buildinfo
