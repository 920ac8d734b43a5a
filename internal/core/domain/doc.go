// Package domain defines the core error taxonomy and shared value types
// of the opslab service.
//
// It has no IO dependencies. The package contains:
//
//   - Errors: DomainError with stable codes and the sentinel errors used by
//     the metric registry, the stat source and the simulation endpoints
//   - ErrorKind: label values of the app_errors_total counter
package domain
