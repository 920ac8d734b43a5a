// Package logger provides structured logging for opslab.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, construction and the process-wide level
//   - context.go: carrying a logger and the request ID on a context
//   - redact.go: masking credentials before they reach the output
//
// The level is shared by every logger built with New so that a config
// reload can change it at runtime with SetLevel.
package logger
