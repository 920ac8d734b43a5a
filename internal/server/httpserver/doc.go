// Package httpserver provides the HTTP server for opslab.
//
// It is built on net/http and ServeMux method patterns:
//
//   - server.go: http.Server lifecycle with timeouts and optional TLS
//   - router.go: mounts the handler.Routes table and the middleware chain
//   - middleware.go: Recover, RequestID, AccessLog, RequestMetrics,
//     RateLimit and MetricsAuth
//
// Every request, including 404s and panics, is counted in
// app_requests_total and timed in app_request_duration_seconds under the
// route name of the pattern it matched, or "unknown".
package httpserver
