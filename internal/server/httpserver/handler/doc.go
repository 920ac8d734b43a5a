// Package handler implements the opslab HTTP endpoints.
//
// Handlers translate between HTTP and service.Simulator and write flat JSON
// bodies. GET /metrics serializes the shared metric.Registry in the
// Prometheus text format. Middleware and routing live in the parent
// httpserver package, which mounts the table returned by Handler.Routes.
package handler
