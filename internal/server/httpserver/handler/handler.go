package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yndnr/opslab-go/internal/core/domain"
	"github.com/yndnr/opslab-go/internal/core/service"
	"github.com/yndnr/opslab-go/internal/telemetry/logger"
	"github.com/yndnr/opslab-go/internal/telemetry/metric"
)

// Endpoint names used as the endpoint label of the request metrics.
const (
	EndpointHome          = "home"
	EndpointHealth        = "health"
	EndpointReady         = "ready"
	EndpointSimulateLoad  = "simulate_load"
	EndpointSimulateError = "simulate_error"
	EndpointUserActivity  = "user_activity"
	EndpointMetrics       = "metrics"
)

// Links are the monitoring stack URLs shown on the home page. Empty entries
// are omitted.
type Links struct {
	Prometheus   string
	Grafana      string
	CAdvisor     string
	NodeExporter string
}

// Config holds handler settings.
type Config struct {
	// MetricsPath is the exposition route, "/metrics" by default.
	MetricsPath string
	// MetricsCPUInterval is the CPU sampling window used when refreshing
	// the system gauges before exposition.
	MetricsCPUInterval time.Duration
	Links              Links
}

// Handler serves the opslab endpoints.
type Handler struct {
	cfg      Config
	sim      *service.Simulator
	metrics  *metric.AppMetrics
	registry *metric.Registry
	logger   logger.Logger
	now      func() time.Time
}

// New creates a Handler.
func New(cfg Config, sim *service.Simulator, registry *metric.Registry, metrics *metric.AppMetrics, log logger.Logger) *Handler {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		cfg:      cfg,
		sim:      sim,
		metrics:  metrics,
		registry: registry,
		logger:   log,
		now:      time.Now,
	}
}

// Route binds a ServeMux pattern to a handler and its endpoint name.
type Route struct {
	Pattern string
	Name    string
	Handler http.HandlerFunc
}

// Routes returns the endpoint table.
func (h *Handler) Routes() []Route {
	return []Route{
		{"GET /{$}", EndpointHome, h.handleHome},
		{"GET /health", EndpointHealth, h.handleHealth},
		{"GET /ready", EndpointReady, h.handleReady},
		{"GET /simulate-load", EndpointSimulateLoad, h.handleSimulateLoad},
		{"GET /simulate-error", EndpointSimulateError, h.handleSimulateError},
		{"GET /user-activity", EndpointUserActivity, h.handleUserActivity},
		{"GET " + h.cfg.MetricsPath, EndpointMetrics, h.handleMetrics},
	}
}

// writeJSON writes data as a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes {"error": ...} with the status mapped from err.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if code := domain.GetErrorCode(err); code != "" {
		w.Header().Set("X-Error-Code", code)
	}
	h.writeJSON(w, statusFor(err), ErrorResponse{Error: errorMessage(err)})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSimulatedClientFault), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage renders err for a response body without the error code.
func errorMessage(err error) string {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return err.Error()
	}
	if de.Details != "" {
		return de.Message + ": " + de.Details
	}
	return de.Message
}
